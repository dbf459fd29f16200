package chipmeta

import (
	"github.com/simonhull/chipmeta/internal/amd"
	"github.com/simonhull/chipmeta/internal/ams"
	"github.com/simonhull/chipmeta/internal/c669"
	"github.com/simonhull/chipmeta/internal/dbm"
	"github.com/simonhull/chipmeta/internal/gbs"
	"github.com/simonhull/chipmeta/internal/it"
	"github.com/simonhull/chipmeta/internal/mod"
	"github.com/simonhull/chipmeta/internal/mt2"
	"github.com/simonhull/chipmeta/internal/nsf"
	"github.com/simonhull/chipmeta/internal/plm"
	"github.com/simonhull/chipmeta/internal/psf"
	"github.com/simonhull/chipmeta/internal/ptm"
	"github.com/simonhull/chipmeta/internal/s3m"
	"github.com/simonhull/chipmeta/internal/sap"
	"github.com/simonhull/chipmeta/internal/sid"
	"github.com/simonhull/chipmeta/internal/spc"
	"github.com/simonhull/chipmeta/internal/stm"
	"github.com/simonhull/chipmeta/internal/xm"
)

// Format-specific records, as stored in File.Record. Importing them here
// also registers every parser.
type (
	SPC         = spc.File
	NSF         = nsf.File
	SID         = sid.File
	GBS         = gbs.File
	PSF         = psf.File
	SAP         = sap.File
	MOD         = mod.File
	S3M         = s3m.File
	XM          = xm.File
	IT          = it.File
	PTM         = ptm.File
	AMS         = ams.File
	AMD         = amd.File
	DBM         = dbm.File
	MT2         = mt2.File
	PLM         = plm.File
	Composer669 = c669.File
	STM         = stm.File
)

// Nested record types.
type (
	// SPCExtended is the XID6 extended tag set of an SPC file.
	SPCExtended = spc.Extended

	MODSample     = mod.Sample
	MODPattern    = mod.Pattern
	S3MInstrument = s3m.Instrument
	XMInstrument  = xm.Instrument
	XMSample      = xm.Sample
	ITInstrument  = it.Instrument
	ITSample      = it.Sample
	ITEnvelope    = it.Envelope
	PTMSample     = ptm.Sample
	AMDInstrument = amd.Instrument
	DBMInstrument = dbm.Instrument
	DBMSong       = dbm.Song
	MT2Track      = mt2.Track
	STMSample     = stm.Sample
	C669Sample    = c669.Sample
)
