package assess

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vulntriage/vulntriage/pkg/decide"
	"github.com/vulntriage/vulntriage/pkg/evidence"
	"github.com/vulntriage/vulntriage/pkg/kev"
	"github.com/vulntriage/vulntriage/pkg/reason"
)

var cveIDRegex = regexp.MustCompile(`^CVE-\d{4}-\d{4,7}$`)

// Record is the immutable input of one pipeline instance.
type Record struct {
	CVEID       string `json:"cve_id"`
	Description string `json:"description"`
	Vendor      string `json:"vendor,omitempty"`
	Product     string `json:"product,omitempty"`
}

func NewRecord(cveID, description string) (Record, error) {
	id := strings.ToUpper(strings.TrimSpace(cveID))
	if !cveIDRegex.MatchString(id) {
		return Record{}, fmt.Errorf("invalid CVE identifier %q", cveID)
	}

	return Record{
		CVEID:       id,
		Description: description,
	}, nil
}

// Assessment is the engine's sole externally visible artifact, handed to the
// report renderer. Reprocessing a CVE produces a new one, never a mutation.
type Assessment struct {
	Record Record `json:"record"`

	KevHit   bool       `json:"kev_hit"`
	KevEntry *kev.Entry `json:"kev_entry,omitempty"`

	// KevStale marks that the KEV signal came from a stale or absent snapshot
	KevStale bool `json:"kev_stale,omitempty"`

	Evidence []evidence.Item `json:"evidence"`
	Signals  reason.Signals  `json:"signals"`

	Tier      decide.Tier   `json:"tier"`
	SLA       time.Duration `json:"sla"`
	Rationale []string      `json:"rationale"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Build composes the final record. It does no I/O, a missing required input
// is a programming error of the caller.
func Build(rec Record, entry *kev.Entry, stale bool, items []evidence.Item,
	signals *reason.Signals, tier decide.Tier, sla time.Duration, rationale []string) (*Assessment, error) {

	if rec.CVEID == "" {
		return nil, errors.New("record without CVE identifier")
	}
	if signals == nil {
		return nil, errors.New("missing risk signals")
	}
	if tier == "" {
		return nil, errors.New("missing tier")
	}
	if len(rationale) == 0 {
		return nil, errors.New("missing rationale")
	}

	if items == nil {
		items = []evidence.Item{}
	}

	return &Assessment{
		Record:      rec,
		KevHit:      entry != nil,
		KevEntry:    entry,
		KevStale:    stale,
		Evidence:    items,
		Signals:     *signals,
		Tier:        tier,
		SLA:         sla,
		Rationale:   rationale,
		GeneratedAt: time.Now(),
	}, nil
}
