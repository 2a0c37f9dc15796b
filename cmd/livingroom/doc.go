// Command livingroom builds the merged measurement corpus for the living room
// conversation study and provides the supporting utilities around it.
package main
