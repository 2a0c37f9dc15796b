package config

// Case enumeration sources.
const (
	SourceAudio       = "audio"
	SourceVideo       = "video"
	SourceAnnotations = "annotations"
)

// Cache backends.
const (
	CacheBackendFile   = "file"
	CacheBackendSQLite = "sqlite"
)

const (
	defaultCorpusRoot          = "~/livingroom"
	defaultAudioDir            = "audio"
	defaultVideoDir            = "video"
	defaultAnnotationsDir      = "annotations"
	defaultCreakDir            = "creak"
	defaultWorkDir             = "~/.local/share/livingroom/work"
	defaultCacheDir            = "~/.cache/livingroom"
	defaultLogDir              = "~/.local/share/livingroom/logs"
	defaultCaseFilename        = `^(\d{8})_(INT\d{3})_(\d{3})([MF]?)_(FAM|STR)_(CHA|SOF)\.(wav|mov|eaf)$`
	defaultCaseID              = "${2}_${3}"
	defaultUniqueID            = `^(?P<session>INT\d{3})_(?P<speaker>\d{3})$`
	defaultResource            = `^(\d{8})_SESSION_USER([MF]?)_(FAM|STR)_(CHA|SOF)`
	defaultPraatBinary         = "praat"
	defaultPraatScriptsDir     = "~/.local/share/livingroom/praat"
	defaultPraatTimeout        = 1800
	defaultVisionCommand       = "python3"
	defaultVisionTimeout       = 3600
	defaultSmileThreshold      = 0.5
	defaultOffsetTimeLimit     = 120
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultPraatTier           = 1
	defaultPraatPadding        = 0.025
	defaultPraatWindowLength   = 0.025
	defaultPraatTimestep       = 0.02
	defaultPraatMaxDuration    = 5
	defaultPraatMaxFormant     = 5500
	defaultPraatMinF0          = 50
	defaultPraatMaxF0          = 500
	defaultAudioExtension      = ".wav"
	defaultVideoExtension      = ".mov"
	defaultAlignmentsExtension = ".TextGrid"
	defaultTranscriptExtension = ".txt"
	defaultCreakExtension      = ".txt"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CorpusRoot:     defaultCorpusRoot,
			AudioDir:       defaultAudioDir,
			VideoDir:       defaultVideoDir,
			AnnotationsDir: defaultAnnotationsDir,
			CreakDir:       defaultCreakDir,
			WorkDir:        defaultWorkDir,
			CacheDir:       defaultCacheDir,
			LogDir:         defaultLogDir,
		},
		Patterns: Patterns{
			CaseFilename: defaultCaseFilename,
			CaseID:       defaultCaseID,
			CaseSource:   SourceAudio,
			UniqueID:     defaultUniqueID,
			Resource:     defaultResource,
			Extensions: Extensions{
				Audio:      defaultAudioExtension,
				Video:      defaultVideoExtension,
				Alignments: defaultAlignmentsExtension,
				Transcript: defaultTranscriptExtension,
				Creak:      defaultCreakExtension,
			},
		},
		Praat: Praat{
			Binary:         defaultPraatBinary,
			ScriptsDir:     defaultPraatScriptsDir,
			TimeoutSeconds: defaultPraatTimeout,
			Tier:           defaultPraatTier,
			Padding:        defaultPraatPadding,
			WindowLength:   defaultPraatWindowLength,
			Timestep:       defaultPraatTimestep,
			MaxDuration:    defaultPraatMaxDuration,
			FormantRefs:    []float64{550, 1650, 2750, 3850, 4950},
			MaxFormant:     defaultPraatMaxFormant,
			MinF0:          defaultPraatMinF0,
			MaxF0:          defaultPraatMaxF0,
		},
		Vision: Vision{
			Command:        defaultVisionCommand,
			TimeoutSeconds: defaultVisionTimeout,
			Standardize:    true,
			SmileThreshold: defaultSmileThreshold,
		},
		Pipeline: Pipeline{
			Acoustic: true,
			Creak:    true,
			CV:       true,
		},
		Offsets: Offsets{
			Enabled:          true,
			TimeLimitSeconds: defaultOffsetTimeLimit,
		},
		Cache: Cache{
			Enabled: true,
			Backend: CacheBackendFile,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
