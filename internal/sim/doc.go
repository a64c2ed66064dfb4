// Package sim provides synthetic frame and audio sources for running a
// node without camera or microphone hardware, and for exercising the
// full pipeline in development.
package sim
