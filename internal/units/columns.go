package units

// Column names shared by the merge engine, the resolver and the orchestrator.
const (
	ColFilename     = "Filename"
	ColChunk        = "Chunk"
	ColMeasure      = "Measure"
	ColValue        = "Value"
	ColSegmentLabel = "Segment label"
	ColSegmentStart = "Segment start"
	ColSegmentEnd   = "Segment end"
	ColWindowStart  = "Window_start"
	ColWindowEnd    = "Window_end"

	ColSegmentOriginalStart    = "segment_original_start"
	ColSegmentOriginalEnd      = "segment_original_end"
	ColSegmentOriginalMidpoint = "segment_original_midpoint"
	ColChunkTimestamp          = "chunk_original_timestamp"
	ColChunkMidpoint           = "chunk_original_midpoint"
	ColChunkEnd                = "chunk_original_end"

	ColWordLabel = "word_label"
	ColWordStart = "word_start"
	ColWordEnd   = "word_end"
	ColLineLabel = "line_label"
	ColLineStart = "line_start"
	ColLineEnd   = "line_end"

	ColChunkID         = "chunk_id"
	ColSegmentID       = "segment_id"
	ColWordID          = "word_id"
	ColLineID          = "line_id"
	ColSegmentDuration = "segment_duration"
	ColWordDuration    = "word_duration"
	ColLineDuration    = "line_duration"
	ColPrevPhone       = "prev_phone"
	ColNextPhone       = "next_phone"
	ColStress          = "stress"

	ColMovAmp = "movamp_interp"
	ColSmile  = "smiles_interp"
	ColCreak  = "creak_binary"

	ColSpeakerSessionID     = "speaker_session_id"
	ColSessionID            = "session_id"
	ColSpeakerID            = "speaker_id"
	ColInterlocutorID       = "interlocutor_id"
	ColOffsetSecs           = "offset_secs"
	ColChunkTimestampOffset = "chunk_timestamp_with_offset"
	ColOffsetToInterlocutor = "offset_to_interlocutor_native"
	ColInterlocutorMovAmp   = "interlocutor_movamp"
	ColInterlocutorSmile    = "interlocutor_smile"
)
