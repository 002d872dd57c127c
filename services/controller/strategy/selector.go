// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package strategy maps a game genre to a testing strategy: the policy
// family to train plus the action space it emits. The mapping is a pure,
// closed table consulted once at session start.
package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/GameProbe/services/controller/gameenv"
)

// ErrInvalidGenre indicates a genre outside the supported set.
var ErrInvalidGenre = errors.New("invalid genre")

// Genre is one of the supported game genres.
type Genre string

const (
	GenrePlatformer Genre = "platformer"
	GenreFPS        Genre = "fps"
	GenreRacing     Genre = "racing"
	GenreRPG        Genre = "rpg"
)

// Genres lists every supported genre.
func Genres() []Genre {
	return []Genre{GenrePlatformer, GenreFPS, GenreRacing, GenreRPG}
}

// ParseGenre validates and normalizes a caller-supplied genre string.
func ParseGenre(raw string) (Genre, error) {
	g := Genre(strings.ToLower(strings.TrimSpace(raw)))
	switch g {
	case GenrePlatformer, GenreFPS, GenreRacing, GenreRPG:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q (must be one of platformer, fps, racing, rpg)",
		ErrInvalidGenre, raw)
}

// Family names a policy family.
type Family string

const (
	FamilyDQN Family = "DQN"
	FamilyPPO Family = "PPO"
	FamilySAC Family = "SAC"
	FamilyHRL Family = "HRL"
)

// Strategy is the agent configuration for one genre. It never changes for
// the lifetime of a session.
type Strategy struct {
	Genre  Genre
	Family Family
	Space  gameenv.ActionSpace
}

// Select returns the strategy for a genre.
//
// Platformer, fps and rpg use discrete action sets; racing uses a bounded
// two-axis continuous space (steering, throttle).
func Select(genre Genre) (Strategy, error) {
	switch genre {
	case GenrePlatformer:
		return Strategy{
			Genre:  genre,
			Family: FamilyDQN,
			Space: gameenv.ActionSpace{
				Kind:   gameenv.SpaceDiscrete,
				N:      4,
				Labels: []string{"nop", "left", "right", "jump"},
			},
		}, nil
	case GenreFPS:
		return Strategy{
			Genre:  genre,
			Family: FamilyPPO,
			Space: gameenv.ActionSpace{
				Kind:   gameenv.SpaceDiscrete,
				N:      6,
				Labels: []string{"forward", "left", "back", "right", "jump", "fire"},
			},
		}, nil
	case GenreRacing:
		return Strategy{
			Genre:  genre,
			Family: FamilySAC,
			Space: gameenv.ActionSpace{
				Kind: gameenv.SpaceContinuous,
				Dims: 2,
				Low:  -1.0,
				High: 1.0,
			},
		}, nil
	case GenreRPG:
		return Strategy{
			Genre:  genre,
			Family: FamilyHRL,
			Space: gameenv.ActionSpace{
				Kind: gameenv.SpaceDiscrete,
				N:    8,
				Labels: []string{
					"nop", "up", "down", "left", "right", "interact", "menu", "attack",
				},
			},
		}, nil
	}
	return Strategy{}, fmt.Errorf("%w: %q", ErrInvalidGenre, genre)
}
