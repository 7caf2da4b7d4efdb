package dashboard

import (
	"slices"
	"strings"
	"time"

	"github.com/yanqian/precipitation-dashboard/internal/domain/precipitation"
)

// Lane identifies one of the independently tracked request categories.
type Lane string

const (
	LanePrecipitation Lane = "precipitation"
	LaneDataset       Lane = "dataset"
)

// Status is the lifecycle position of a lane.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// LaneState tracks the request the lane currently reflects.
type LaneState struct {
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Seq       uint64    `json:"seq"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Lanes groups the per category states.
type Lanes struct {
	Precipitation LaneState `json:"precipitation"`
	Dataset       LaneState `json:"dataset"`
}

// State is a snapshot of the dashboard session.
type State struct {
	Version       uint64                `json:"version"`
	Date          precipitation.DateKey `json:"date"`
	Precipitation *precipitation.Result `json:"precipitation,omitempty"`
	Dataset       precipitation.Dataset `json:"dataset,omitempty"`
	Loading       bool                  `json:"loading"`
	Error         string                `json:"error,omitempty"`
	Lanes         Lanes                 `json:"lanes"`
}

// Lane returns the state of a single lane.
func (s State) Lane(lane Lane) LaneState {
	if lane == LaneDataset {
		return s.Lanes.Dataset
	}
	return s.Lanes.Precipitation
}

// Clone returns a deep copy of the snapshot.
func (s State) Clone() State {
	out := s
	out.Precipitation = s.Precipitation.Clone()
	out.Dataset = slices.Clone(s.Dataset)
	return out
}

func (s *State) lane(lane Lane) *LaneState {
	if lane == LaneDataset {
		return &s.Lanes.Dataset
	}
	return &s.Lanes.Precipitation
}

// derive recomputes the aggregate loading flag and error message.
func (s *State) derive() {
	s.Loading = s.Lanes.Precipitation.Status == StatusLoading || s.Lanes.Dataset.Status == StatusLoading
	messages := make([]string, 0, 2)
	for _, ls := range []LaneState{s.Lanes.Precipitation, s.Lanes.Dataset} {
		if ls.Error != "" {
			messages = append(messages, ls.Error)
		}
	}
	s.Error = strings.Join(messages, "; ")
}

// Ticket identifies an accepted fetch request.
type Ticket struct {
	Lane Lane   `json:"lane"`
	Seq  uint64 `json:"seq"`
}

// Config wires runtime behavior of the controller.
type Config struct {
	DefaultDate precipitation.DateKey
	// SequenceGuard discards completions that are older than the latest
	// request of the same lane. When false the last completion to arrive wins.
	SequenceGuard bool
}

var failurePrefix = map[Lane]string{
	LanePrecipitation: "Failed to fetch precipitation data: ",
	LaneDataset:       "Failed to fetch dataset: ",
}
