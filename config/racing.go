package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// top-level section of the racing game in the tuning document
const racingSection = "racing"

// tuning keys
const (
	KeyTrackRadius        = "track-radius"
	KeyTragnetK           = "tragnet-k"
	KeyTragnetStrength    = "tragnet-strength"
	KeyTragnetStrengthExp = "tragnet-strength-exp"
	KeyCheckpoints        = "checkpoints"
	KeyLaps               = "laps"
	KeyAccSpeed           = "acc-speed"
	KeyTurnSpeed          = "turn-speed"
	KeyMaxSpeed           = "max-speed"
	KeyDrag               = "drag"
)

// RacingTuning is the validated parameter set of the racing game.
type RacingTuning struct {
	// TrackRadius is how far a car may stray from its anchor before the
	// tragnet pulls it back.
	TrackRadius float64 `json:"track-radius"`
	// TragnetK is the half width of the tether search window, in anchors.
	TragnetK int `json:"tragnet-k"`
	// TragnetStrength scales the pull; 0 turns it off.
	TragnetStrength    float64 `json:"tragnet-strength"`
	TragnetStrengthExp float64 `json:"tragnet-strength-exp"`
	Checkpoints        int     `json:"checkpoints"`
	Laps               int     `json:"laps"`
	AccSpeed           float64 `json:"acc-speed"`
	TurnSpeed          float64 `json:"turn-speed"`
	MaxSpeed           float64 `json:"max-speed"`
	Drag               float64 `json:"drag"`
}

// Racing reads and validates the "racing" section.
func (t *Tuning) Racing() (RacingTuning, error) {
	var (
		rt  RacingTuning
		err error
	)
	key := func(k string) string { return racingSection + "." + k }
	req := []struct {
		k   string
		dst *float64
	}{
		{KeyTrackRadius, &rt.TrackRadius},
		{KeyAccSpeed, &rt.AccSpeed},
		{KeyTurnSpeed, &rt.TurnSpeed},
	}
	for _, r := range req {
		if *r.dst, err = t.Float(key(r.k)); err != nil {
			return RacingTuning{}, err
		}
	}
	if rt.TragnetK, err = t.Int(key(KeyTragnetK)); err != nil {
		return RacingTuning{}, err
	}
	if rt.TragnetStrength, err = t.FloatOr(key(KeyTragnetStrength), 0.5); err != nil {
		return RacingTuning{}, err
	}
	if rt.TragnetStrengthExp, err = t.FloatOr(key(KeyTragnetStrengthExp), 0); err != nil {
		return RacingTuning{}, err
	}
	if rt.Checkpoints, err = t.IntOr(key(KeyCheckpoints), 3); err != nil {
		return RacingTuning{}, err
	}
	if rt.Laps, err = t.IntOr(key(KeyLaps), 1); err != nil {
		return RacingTuning{}, err
	}
	if rt.MaxSpeed, err = t.FloatOr(key(KeyMaxSpeed), 20); err != nil {
		return RacingTuning{}, err
	}
	if rt.Drag, err = t.FloatOr(key(KeyDrag), 0.05); err != nil {
		return RacingTuning{}, err
	}
	if err := rt.Validate(); err != nil {
		return RacingTuning{}, err
	}
	return rt, nil
}

// Validate checks the ranges the race relies on.
func (rt RacingTuning) Validate() error {
	switch {
	case rt.TragnetK < 1:
		return fmt.Errorf("config: %s must be >= 1, got %d", KeyTragnetK, rt.TragnetK)
	case rt.TragnetStrength < 0:
		return fmt.Errorf("config: %s must be >= 0, got %v", KeyTragnetStrength, rt.TragnetStrength)
	case rt.TragnetStrengthExp < 0:
		return fmt.Errorf("config: %s must be >= 0, got %v", KeyTragnetStrengthExp, rt.TragnetStrengthExp)
	case rt.Checkpoints < 2:
		return fmt.Errorf("config: %s must be >= 2, got %d", KeyCheckpoints, rt.Checkpoints)
	case rt.Laps < 1:
		return fmt.Errorf("config: %s must be >= 1, got %d", KeyLaps, rt.Laps)
	case rt.Drag < 0 || rt.Drag >= 1:
		return fmt.Errorf("config: %s must be in [0,1), got %v", KeyDrag, rt.Drag)
	}
	return nil
}

// racingPatch lists the values that can change while the host runs. The
// checkpoint count is fixed by the loaded track.
type racingPatch struct {
	TrackRadius        *float64 `json:"track-radius,omitempty"`
	TragnetK           *int     `json:"tragnet-k,omitempty"`
	TragnetStrength    *float64 `json:"tragnet-strength,omitempty"`
	TragnetStrengthExp *float64 `json:"tragnet-strength-exp,omitempty"`
	Laps               *int     `json:"laps,omitempty"`
	AccSpeed           *float64 `json:"acc-speed,omitempty"`
	TurnSpeed          *float64 `json:"turn-speed,omitempty"`
	MaxSpeed           *float64 `json:"max-speed,omitempty"`
	Drag               *float64 `json:"drag,omitempty"`
}

// Patch returns rt with the fields present in data replaced. data is a JSON
// object of racing keys; unknown keys (checkpoints among them) are rejected.
func (rt RacingTuning) Patch(data []byte) (RacingTuning, error) {
	var p racingPatch
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return RacingTuning{}, fmt.Errorf("config: racing patch: %w", err)
	}
	setF := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setI := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setF(&rt.TrackRadius, p.TrackRadius)
	setI(&rt.TragnetK, p.TragnetK)
	setF(&rt.TragnetStrength, p.TragnetStrength)
	setF(&rt.TragnetStrengthExp, p.TragnetStrengthExp)
	setI(&rt.Laps, p.Laps)
	setF(&rt.AccSpeed, p.AccSpeed)
	setF(&rt.TurnSpeed, p.TurnSpeed)
	setF(&rt.MaxSpeed, p.MaxSpeed)
	setF(&rt.Drag, p.Drag)
	if err := rt.Validate(); err != nil {
		return RacingTuning{}, err
	}
	return rt, nil
}
