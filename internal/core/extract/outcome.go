package extract

import "github.com/samirrijal/ymaps2gpx/internal/core/domain"

type outcomeKind int

const (
	outcomeAbsent outcomeKind = iota
	outcomeOK
	outcomeMalformed
)

// outcome is what one strategy reports. Absent means its substructure is
// not in the document at all; malformed means it is there but unusable.
type outcome struct {
	kind  outcomeKind
	found domain.Extraction
	err   error
	// documentLevel malformations stop the remaining strategies.
	documentLevel bool
}

func found(e domain.Extraction) outcome {
	if e.Empty() {
		return absent()
	}
	return outcome{kind: outcomeOK, found: e}
}

func absent() outcome {
	return outcome{kind: outcomeAbsent}
}

func malformed(err error) outcome {
	return outcome{kind: outcomeMalformed, err: err}
}

func corrupt(err error) outcome {
	return outcome{kind: outcomeMalformed, err: err, documentLevel: true}
}
