// Package frame defines the inbound camera frame contract shared by the
// sensing subsystems.
//
// A Frame is a descriptor over a raw pixel buffer produced by the camera
// capture layer (which lives outside this module). The package provides:
//   - Pixel format identification and validation
//   - Integer-weighted luma conversion for the supported raw formats
//   - Nearest-neighbour downscaling into fixed detection grids
//
// Compressed formats (JPEG) are deliberately not decoded here; frames in
// such formats are rejected and the producing cycle is skipped.
package frame
