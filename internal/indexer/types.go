package indexer

import (
	"errors"

	"github.com/0xADE/ade-run/internal/entry"
)

// ErrAcquisition marks a source item or a whole source that could not be read
var ErrAcquisition = errors.New("acquisition failed")

// Event is one discovery delivered by the feed.
// Exactly one of Desktop, Custom and Err is set.
type Event struct {
	Desktop *entry.DesktopEntry
	Custom  *entry.CustomEntry
	Err     error
}
