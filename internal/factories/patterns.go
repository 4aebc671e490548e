package factories

import "fmt"

// ArrivalPattern shapes when customers turn up during a shift and how large
// their parties are. Rush bounds are fractions of the shift.
type ArrivalPattern struct {
	Name       string
	RushStart  float64
	RushEnd    float64
	RushShare  float64
	LateShare  float64
	PartySizes map[int64]float64
}

var ArrivalPatterns = map[string]ArrivalPattern{
	"steady": {
		Name:      "steady",
		LateShare: 0.05,
		PartySizes: map[int64]float64{
			1: 0.2, 2: 0.4, 3: 0.15, 4: 0.2, 6: 0.05,
		},
	},
	"lunch": {
		Name:      "lunch",
		RushStart: 0.3,
		RushEnd:   0.55,
		RushShare: 0.6,
		LateShare: 0.05,
		PartySizes: map[int64]float64{
			1: 0.35, 2: 0.4, 3: 0.15, 4: 0.1,
		},
	},
	"dinner": {
		Name:      "dinner",
		RushStart: 0.5,
		RushEnd:   0.85,
		RushShare: 0.5,
		LateShare: 0.1,
		PartySizes: map[int64]float64{
			2: 0.45, 3: 0.15, 4: 0.25, 5: 0.05, 6: 0.1,
		},
	},
}

func LookupPattern(name string) (ArrivalPattern, error) {
	p, ok := ArrivalPatterns[name]
	if !ok {
		return ArrivalPattern{}, fmt.Errorf("unknown arrival pattern %q", name)
	}
	return p, nil
}
