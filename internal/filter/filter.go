// Package filter narrows and orders feed candidates.
//
// Every predicate is a conjunction term, so the order in which they are
// applied does not change the result. Nothing here touches storage.
package filter

import (
	"errors"
	"slices"
	"sort"

	"github.com/go-playground/validator/v10"

	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/geo"
)

// Defaults used by the client when the user has not set preferences.
const (
	DefaultMinAge        = 18
	DefaultMaxAge        = 100
	DefaultMaxDistanceKm = 1000
)

// Candidate is the filterable projection of a profile.
// DistanceKm is only meaningful when DistanceKnown is true.
type Candidate struct {
	ID                string
	Age               int
	Gender            string
	SexualOrientation string
	RelationshipType  string
	HasChildren       bool
	IsMonogamous      bool
	Location          *geo.Coordinate

	DistanceKm    float64
	DistanceKnown bool
}

// Criteria describes what the viewer wants to see. Zero values and empty
// sets mean "no constraint".
type Criteria struct {
	MinAge int `json:"minAge" validate:"gte=0,lte=150"`
	MaxAge int `json:"maxAge" validate:"omitempty,lte=150,gtefield=MinAge"`

	Genders            []string `json:"genders" validate:"dive,required"`
	SexualOrientations []string `json:"sexualOrientations" validate:"dive,required"`
	RelationshipTypes  []string `json:"relationshipTypes" validate:"dive,required"`

	HasChildren  *bool `json:"hasChildren,omitempty"`
	IsMonogamous *bool `json:"isMonogamous,omitempty"`

	MaxDistanceKm float64 `json:"maxDistance" validate:"gte=0"`

	// ExcludeUnlocated drops candidates whose distance cannot be computed
	// when a distance limit is set. Default keeps them.
	ExcludeUnlocated bool `json:"excludeUnlocated"`

	// Origin is the viewer's position. Nil disables the distance limit.
	Origin *geo.Coordinate `json:"-"`
}

// Default returns the criteria a new user starts with.
func Default() Criteria {
	return Criteria{
		MinAge:        DefaultMinAge,
		MaxAge:        DefaultMaxAge,
		MaxDistanceKm: DefaultMaxDistanceKm,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the criteria bounds.
func (c Criteria) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return svcErr.Invalid("criteria.%s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return svcErr.Invalid("criteria: %v", err)
	}
	return nil
}

// Apply annotates each candidate with its distance from c.Origin and returns
// the ones that satisfy every constraint, in input order.
func Apply(candidates []Candidate, c Criteria) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		cand.DistanceKm, cand.DistanceKnown = geo.DistanceKm(c.Origin, cand.Location)
		if c.Match(cand) {
			out = append(out, cand)
		}
	}
	return out
}

// Match reports whether a single, already annotated candidate passes.
func (c Criteria) Match(cand Candidate) bool {
	if c.MinAge > 0 && cand.Age < c.MinAge {
		return false
	}
	if c.MaxAge > 0 && cand.Age > c.MaxAge {
		return false
	}
	if !inSet(c.Genders, cand.Gender) ||
		!inSet(c.SexualOrientations, cand.SexualOrientation) ||
		!inSet(c.RelationshipTypes, cand.RelationshipType) {
		return false
	}
	if c.HasChildren != nil && *c.HasChildren != cand.HasChildren {
		return false
	}
	if c.IsMonogamous != nil && *c.IsMonogamous != cand.IsMonogamous {
		return false
	}
	return c.withinDistance(cand)
}

func (c Criteria) withinDistance(cand Candidate) bool {
	if c.MaxDistanceKm <= 0 || !c.Origin.Valid() {
		return true
	}
	if !cand.DistanceKnown {
		return !c.ExcludeUnlocated
	}
	return cand.DistanceKm <= c.MaxDistanceKm
}

func inSet(set []string, v string) bool {
	return len(set) == 0 || slices.Contains(set, v)
}

// SortByDistance orders candidates nearest first. Unknown distances go last;
// ties keep their input order.
func SortByDistance(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.DistanceKnown != b.DistanceKnown {
			return a.DistanceKnown
		}
		return a.DistanceKnown && a.DistanceKm < b.DistanceKm
	})
}
