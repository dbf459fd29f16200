package types

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/simonhull/chipmeta/internal/binary"
)

// Format represents the detected music file format.
type Format int

const (
	// FormatUnknown represents an unknown or unsupported format.
	FormatUnknown Format = iota // Unknown
	// FormatSPC represents SNES SPC700 sound files.
	FormatSPC // SPC
	// FormatNSF represents NES Sound Format files.
	FormatNSF // NSF
	// FormatSID represents Commodore 64 PSID/RSID files.
	FormatSID // SID
	// FormatGBS represents Game Boy Sound System files.
	FormatGBS // GBS
	// FormatPSF represents the Portable Sound Format family (PSF, 2SF, GSF, USF, ...).
	FormatPSF // PSF
	// FormatSAP represents Atari 8-bit Slight Atari Player files.
	FormatSAP // SAP
	// FormatMOD represents ProTracker-style Amiga modules.
	FormatMOD // MOD
	// FormatS3M represents Scream Tracker 3 modules.
	FormatS3M // S3M
	// FormatXM represents FastTracker 2 extended modules.
	FormatXM // XM
	// FormatIT represents Impulse Tracker modules.
	FormatIT // IT
	// FormatPTM represents PolyTracker modules.
	FormatPTM // PTM
	// FormatAMS represents Extreme's Tracker modules.
	FormatAMS // AMS
	// FormatAMD represents AMusic AdLib modules.
	FormatAMD // AMD
	// FormatDBM represents DigiBooster Pro modules.
	FormatDBM // DBM
	// FormatMT2 represents MadTracker 2 modules.
	FormatMT2 // MT2
	// FormatPLM represents Disorder Tracker 2 modules.
	FormatPLM // PLM
	// Format669 represents Composer 669 / UNIS 669 modules.
	Format669 // 669
	// FormatSTM represents Scream Tracker 2 modules.
	FormatSTM // STM
)

var formatNames = [...]string{
	FormatUnknown: "Unknown",
	FormatSPC:     "SPC",
	FormatNSF:     "NSF",
	FormatSID:     "SID",
	FormatGBS:     "GBS",
	FormatPSF:     "PSF",
	FormatSAP:     "SAP",
	FormatMOD:     "MOD",
	FormatS3M:     "S3M",
	FormatXM:      "XM",
	FormatIT:      "IT",
	FormatPTM:     "PTM",
	FormatAMS:     "AMS",
	FormatAMD:     "AMD",
	FormatDBM:     "DBM",
	FormatMT2:     "MT2",
	FormatPLM:     "PLM",
	Format669:     "669",
	FormatSTM:     "STM",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return formatNames[FormatUnknown]
	}
	return formatNames[f]
}

// AllFormats returns every supported format in declaration order.
func AllFormats() []Format {
	out := make([]Format, 0, len(formatNames)-1)
	for f := FormatSPC; int(f) < len(formatNames); f++ {
		out = append(out, f)
	}
	return out
}

// Extensions returns common file extensions for this format.
func (f Format) Extensions() []string {
	switch f {
	case FormatSPC:
		return []string{".spc"}
	case FormatNSF:
		return []string{".nsf"}
	case FormatSID:
		return []string{".sid", ".psid"}
	case FormatGBS:
		return []string{".gbs"}
	case FormatPSF:
		return []string{
			".psf", ".minipsf", ".psf2", ".minipsf2",
			".ssf", ".minissf", ".dsf", ".minidsf",
			".usf", ".miniusf", ".gsf", ".minigsf",
			".snsf", ".minisnsf", ".qsf", ".miniqsf",
			".2sf", ".mini2sf",
		}
	case FormatSAP:
		return []string{".sap"}
	case FormatMOD:
		return []string{".mod"}
	case FormatS3M:
		return []string{".s3m"}
	case FormatXM:
		return []string{".xm"}
	case FormatIT:
		return []string{".it"}
	case FormatPTM:
		return []string{".ptm"}
	case FormatAMS:
		return []string{".ams"}
	case FormatAMD:
		return []string{".amd"}
	case FormatDBM:
		return []string{".dbm"}
	case FormatMT2:
		return []string{".mt2"}
	case FormatPLM:
		return []string{".plm"}
	case Format669:
		return []string{".669"}
	case FormatSTM:
		return []string{".stm"}
	case FormatUnknown:
		return nil
	default:
		return nil
	}
}

// FormatFromExtension maps a path's extension to a format.
func FormatFromExtension(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return FormatUnknown
	}
	for _, f := range AllFormats() {
		for _, e := range f.Extensions() {
			if e == ext {
				return f
			}
		}
	}
	return FormatUnknown
}

// prefixMagic lists signatures found at offset 0, longest first where they
// could overlap.
var prefixMagic = []struct {
	magic  string
	format Format
}{
	{"SNES-SPC700 Sound File Data", FormatSPC},
	{"Extended Module: ", FormatXM},
	{"NESM\x1a", FormatNSF},
	{"PSID", FormatSID},
	{"RSID", FormatSID},
	{"DBM0", FormatDBM},
	{"MT20", FormatMT2},
	{"PLM\x1a", FormatPLM},
	{"IMPM", FormatIT},
	{"Extreme", FormatAMS},
	{"GBS", FormatGBS},
	{"PSF", FormatPSF},
	{"SAP\r", FormatSAP},
	{"SAP\n", FormatSAP},
}

// detectWindow covers every signature, the deepest being MOD's at 0x438.
const detectWindow = 0x43C

// DetectFormat determines the music file format by examining magic bytes.
//
// Signatures at the start of the file are checked first, then signatures
// at fixed offsets (S3M and PTM at 0x2C, MOD at 0x438), then the weak
// STM and 669 markers. Formats without any signature (AMD, and MOD files
// whose signature is missing) fall back to the file extension.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	if size < 4 {
		return FormatUnknown, &UnsupportedFormatError{
			Path:   path,
			Reason: "file too small",
		}
	}

	sr := binary.NewSafeReader(r, size, path)
	head := make([]byte, min(size, detectWindow))
	if err := sr.ReadAt(head, 0, "file magic bytes"); err != nil {
		return FormatUnknown, &UnsupportedFormatError{
			Path:   path,
			Reason: "failed to read file header",
		}
	}

	for _, m := range prefixMagic {
		if bytes.HasPrefix(head, []byte(m.magic)) {
			return m.format, nil
		}
	}

	if at(head, 0x2C, 4) == "SCRM" {
		return FormatS3M, nil
	}
	if at(head, 0x2C, 4) == "PTMF" {
		return FormatPTM, nil
	}
	if _, ok := MODChannels(at(head, 0x438, 4)); ok {
		return FormatMOD, nil
	}
	if len(head) > 0x1D && head[0x1C] == 0x1A && (head[0x1D] == 1 || head[0x1D] == 2) {
		return FormatSTM, nil
	}
	if is669(head) {
		return Format669, nil
	}

	if f := FormatFromExtension(path); f != FormatUnknown {
		return f, nil
	}

	return FormatUnknown, &UnsupportedFormatError{
		Path:   path,
		Reason: "unsupported file format",
	}
}

func at(b []byte, off, n int) string {
	if off+n > len(b) {
		return ""
	}
	return string(b[off : off+n])
}

// is669 checks the two-byte marker plus the sample and pattern limits, since
// "if" alone is a common text prefix.
func is669(head []byte) bool {
	marker := at(head, 0, 2)
	if marker != "if" && marker != "JN" {
		return false
	}
	if len(head) <= 0x70 {
		return false
	}
	return head[0x6E] <= 64 && head[0x6F] <= 128 && head[0x70] < 128
}

// MODChannels maps a MOD signature at 0x438 to its channel count.
func MODChannels(sig string) (int, bool) {
	switch sig {
	case "M.K.", "M!K!", "M&K!", "FLT4", "4CHN", "N.T.":
		return 4, true
	case "6CHN":
		return 6, true
	case "8CHN", "FLT8", "CD81", "OKTA", "OCTA":
		return 8, true
	}
	if len(sig) != 4 {
		return 0, false
	}
	// xCHN, xxCH, xxCN and TDZx
	if sig[1:] == "CHN" && isDigit(sig[0]) {
		return int(sig[0] - '0'), true
	}
	if (sig[2:] == "CH" || sig[2:] == "CN") && isDigit(sig[0]) && isDigit(sig[1]) {
		return int(sig[0]-'0')*10 + int(sig[1]-'0'), true
	}
	if sig[:3] == "TDZ" && isDigit(sig[3]) {
		return int(sig[3] - '0'), true
	}
	return 0, false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
