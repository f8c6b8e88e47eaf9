package engine

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"lukechampine.com/frand"
)

var (
	// ErrUnknownFeature is returned when a profile names a feature the
	// evaluator does not compute.
	ErrUnknownFeature = errors.New("unknown evaluation feature")

	// ErrUnknownProfile is returned when a preset name is not known.
	ErrUnknownProfile = errors.New("unknown profile")
)

// Feature names one evaluation term.
type Feature string

const (
	Material     Feature = "material"
	Central      Feature = "central"
	Structure    Feature = "structure"
	Mobility     Feature = "mobility"
	KingActivity Feature = "king_activity"
	Promotion    Feature = "promotion"
	Safety       Feature = "safety"
	Tempo        Feature = "tempo"
	Locks        Feature = "locks"
)

// Features lists every feature in evaluation order.
var Features = [numFeatures]Feature{
	Material, Central, Structure, Mobility, KingActivity, Promotion, Safety, Tempo, Locks,
}

const numFeatures = 9

func featureIndex(f Feature) (int, bool) {
	for i, g := range Features {
		if g == f {
			return i, true
		}
	}
	return 0, false
}

// Weights maps features to their coefficients. Missing features weigh zero.
type Weights map[Feature]float64

// Profile is a named weight set handed to the evaluator.
type Profile struct {
	Name    string  `json:"name"`
	Weights Weights `json:"weights"`
}

// Validate checks that every weighted feature is known.
func (p Profile) Validate() error {
	for f := range p.Weights {
		if _, ok := featureIndex(f); !ok {
			return fmt.Errorf("%w: %q in profile %q", ErrUnknownFeature, f, p.Name)
		}
	}
	return nil
}

// vector returns the weights in evaluation order.
func (p Profile) vector() [numFeatures]float64 {
	var v [numFeatures]float64
	for i, f := range Features {
		v[i] = p.Weights[f]
	}
	return v
}

// Digest identifies the weight set independently of the profile name and of
// map ordering. Two profiles with equal weights share a digest.
func (p Profile) Digest() uint64 {
	keys := make([]string, 0, len(p.Weights))
	for f, w := range p.Weights {
		if w != 0 {
			keys = append(keys, string(f))
		}
	}
	sort.Strings(keys)

	d := xxhash.New()
	for _, k := range keys {
		d.WriteString(k)
		d.WriteString("=")
		d.WriteString(strconv.FormatFloat(p.Weights[Feature(k)], 'g', -1, 64))
		d.WriteString(";")
	}
	return d.Sum64()
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	w := make(Weights, len(p.Weights))
	for f, v := range p.Weights {
		w[f] = v
	}
	return Profile{Name: p.Name, Weights: w}
}

func preset(name string, values ...float64) Profile {
	w := make(Weights, numFeatures)
	for i, v := range values {
		w[Features[i]] = v
	}
	return Profile{Name: name, Weights: w}
}

// Built-in weight sets. They are starting points for experiments and
// tournaments, not tuned values.
var builtinProfiles = []Profile{
	preset("losing", 1, 1, 5, 7, 1, 1, 10, 1, 2),
	preset("intermediate", 15, 15, 15, 15, 20, 20, 10, 20, 15),
	preset("expert", 60, 25, 30, 20, 45, 45, 10, 40, 35),
	preset("aggressive", 100, 25, 8, 35, 95, 50, 12, 20, 15),
	preset("defensive", 50, 12, 45, 20, 30, 10, 50, 1, 25),
	preset("balanced", 10, 10, 10, 10, 10, 10, 10, 10, 10),
	// All positions score alike, so the engine plays its first ordered move
	// unless a forced win or loss is in sight. Play is deterministic.
	preset("random-play", 0, 0, 0, 0, 0, 0, 0, 0, 0),
}

// BuiltinProfile returns a copy of the named preset.
func BuiltinProfile(name string) (Profile, error) {
	for _, p := range builtinProfiles {
		if p.Name == name {
			return p.Clone(), nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// BuiltinProfileNames lists the presets in declaration order.
func BuiltinProfileNames() []string {
	names := make([]string, len(builtinProfiles))
	for i, p := range builtinProfiles {
		names[i] = p.Name
	}
	return names
}

// RandomProfile draws an integer weight in [0, 50] for every feature.
func RandomProfile(name string) Profile {
	w := make(Weights, numFeatures)
	for _, f := range Features {
		w[f] = float64(frand.Intn(51))
	}
	return Profile{Name: name, Weights: w}
}
