package chipmeta

import (
	"io"

	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/types"
)

// Format is an alias to types.Format.
type Format = types.Format

// Re-export all format constants.
const (
	FormatUnknown = types.FormatUnknown
	FormatSPC     = types.FormatSPC
	FormatNSF     = types.FormatNSF
	FormatSID     = types.FormatSID
	FormatGBS     = types.FormatGBS
	FormatPSF     = types.FormatPSF
	FormatSAP     = types.FormatSAP
	FormatMOD     = types.FormatMOD
	FormatS3M     = types.FormatS3M
	FormatXM      = types.FormatXM
	FormatIT      = types.FormatIT
	FormatPTM     = types.FormatPTM
	FormatAMS     = types.FormatAMS
	FormatAMD     = types.FormatAMD
	FormatDBM     = types.FormatDBM
	FormatMT2     = types.FormatMT2
	FormatPLM     = types.FormatPLM
	Format669     = types.Format669
	FormatSTM     = types.FormatSTM
)

// DetectFormat is a wrapper around types.DetectFormat.
//
// Magic bytes are checked first; formats without a reliable signature fall
// back to the file extension.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	return types.DetectFormat(r, size, path)
}

// SupportedFormats returns every format that has a registered parser.
func SupportedFormats() []Format {
	return registry.Formats()
}
