// Package chipmeta reads metadata from game-music rips and tracker modules.
//
// chipmeta decodes the headers, tag blocks and chunk lists of the formats
// used by vintage console sound drivers and PC/Amiga trackers, and exposes
// them both as format-specific records and through one format-agnostic view.
//
// # Quick Start
//
//	file, err := chipmeta.Open("castlevania.nsf")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("%s - %s\n", file.Tags.Artist, file.Tags.Title)
//	fmt.Println(file.Audio) // NSF 2A03 NTSC 24 songs
//
// The file handle is closed before Open returns; a File holds no resources
// and is never modified afterwards.
//
// # Supported Formats
//
// Game-music rips:
//
//   - SPC: SNES SPC700 dumps with ID666 and XID6 extended tags
//   - NSF: NES Sound Format, including expansion sound chips
//   - SID: Commodore 64 PSID and RSID
//   - GBS: Game Boy Sound System
//   - PSF: the Portable Sound Format family (PSF, PSF2, SSF, DSF, USF, GSF, SNSF, QSF, 2SF)
//   - SAP: Atari 8-bit Slight Atari Player
//
// Tracker modules:
//
//   - MOD, S3M, XM, IT: ProTracker, Scream Tracker 3, FastTracker 2, Impulse Tracker
//   - PTM, AMS, AMD, DBM, MT2, PLM, 669, STM: the less common PC and Amiga trackers
//
// # Format-specific records
//
// File.Record holds the complete decoded header of the detected format. The
// record types are re-exported here:
//
//	if it, ok := file.Record.(*chipmeta.IT); ok {
//		for _, inst := range it.Instruments {
//			fmt.Println(inst.Name)
//		}
//	}
//
// # Error Handling
//
// Fixed headers and instrument/sample tables are mandatory: a file that
// ends inside them fails with an *OutOfBoundsError, matched by
// errors.Is(err, ErrTruncatedRead) or errors.Is(err, ErrOutOfRange).
//
// Optional regions (XID6 tags, PSF tag blocks, IT song messages, MT2 and
// DBM chunk lists) never fail the parse. Values that are out of range are
// clamped or left at their "not present" value, and a region that ends
// early is reported in File.Warnings:
//
//	for _, w := range file.Warnings {
//		log.Printf("warning: %s", w)
//	}
//
// WithStrictParsing turns any warning into an error.
//
// # Concurrency
//
// Each parse is single-threaded. OpenMany parses independent files in
// parallel and returns them in input order.
package chipmeta
