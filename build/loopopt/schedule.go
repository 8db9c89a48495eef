// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package loopopt

import (
	"github.com/gx-org/tlc/build/fmterr"
	"github.com/gx-org/tlc/cgx/isl"
	"github.com/pkg/errors"
)

// Schedule computes a new schedule of the statements.
// All the dependences are validity constraints and proximity constraints.
// The self dependences of reductions are not coincidence constraints.
// Returns an error wrapping fmterr.ErrInfeasibleSchedule if no schedule
// satisfies the dependences.
func (j *Job) Schedule() error {
	if err := j.checkState("Schedule", ConstraintsBuilt); err != nil {
		return err
	}
	sc, err := isl.NewScheduleConstraints(j.domain)
	if err != nil {
		return err
	}
	defer sc.Free()
	if err := sc.SetValidity(j.validity); err != nil {
		return err
	}
	if err := sc.SetCoincidence(j.coincidence); err != nil {
		return err
	}
	if err := sc.SetProximity(j.validity); err != nil {
		return err
	}
	if err := sc.SetContext(j.context); err != nil {
		return err
	}
	schedule, err := sc.ComputeSchedule()
	if err != nil {
		return errors.Wrapf(err, "%s", j.fn.Name)
	}
	if err := j.checkSchedule(schedule); err != nil {
		schedule.Free()
		return err
	}
	j.schedule = schedule
	j.state = ScheduleReady
	j.debugf("schedule %s", j.schedule)
	return nil
}

// checkSchedule checks that every dependence goes forward in time.
func (j *Job) checkSchedule(schedule *isl.Schedule) error {
	sched, err := schedule.Map()
	if err != nil {
		return err
	}
	defer sched.Free()
	flat, err := sched.Flatten()
	if err != nil {
		return err
	}
	defer flat.Free()
	before, err := flat.LexLt(flat)
	if err != nil {
		return err
	}
	defer before.Free()
	ok, err := j.validity.IsSubset(before)
	if err != nil {
		return err
	}
	if !ok {
		return fmterr.Internalf("loopopt: schedule %s of %s violates the dependences %s", sched, j.fn.Name, j.validity)
	}
	return nil
}

// outermostBand returns a copy of the first band node found in pre-order,
// or nil if the tree has no band.
func outermostBand(node *isl.ScheduleNode) (*isl.ScheduleNode, error) {
	if node.Type() == isl.NodeBand {
		return node.Copy()
	}
	num, err := node.NumChildren()
	if err != nil {
		return nil, err
	}
	for i := range num {
		child, err := node.Child(i)
		if err != nil {
			return nil, err
		}
		band, err := outermostBand(child)
		child.Free()
		if err != nil || band != nil {
			return band, err
		}
	}
	return nil, nil
}

// Tile tiles the outermost band of the schedule.
// sizes gives the tile size of each member of the band, outermost first.
// The band is split if it has more members than sizes; extra sizes are ignored.
func (j *Job) Tile(sizes []int64) error {
	if err := j.checkState("Tile", ScheduleReady); err != nil {
		return err
	}
	if len(sizes) == 0 {
		return errors.Errorf("%s: no tile size", j.fn.Name)
	}
	for _, size := range sizes {
		if size <= 0 {
			return errors.Errorf("%s: invalid tile size %d", j.fn.Name, size)
		}
	}
	root, err := j.schedule.Root()
	if err != nil {
		return err
	}
	defer root.Free()
	band, err := outermostBand(root)
	if err != nil {
		return err
	}
	if band == nil {
		j.debugf("no band to tile")
		j.state = Tiled
		return nil
	}
	defer func() { band.Free() }()
	members, err := band.BandNumMembers()
	if err != nil {
		return err
	}
	switch {
	case len(sizes) > members:
		sizes = sizes[:members]
	case len(sizes) < members:
		split, err := band.BandSplit(len(sizes))
		if err != nil {
			return err
		}
		band.Free()
		band = split
	}
	tileSizes, err := band.BandTileSizes(sizes)
	if err != nil {
		return err
	}
	defer tileSizes.Free()
	tiled, err := band.BandTile(tileSizes)
	if err != nil {
		return err
	}
	defer tiled.Free()
	schedule, err := tiled.Schedule()
	if err != nil {
		return err
	}
	if err := j.checkSchedule(schedule); err != nil {
		schedule.Free()
		return err
	}
	j.schedule.Free()
	j.schedule = schedule
	j.state = Tiled
	j.debugf("tiled schedule %s", j.schedule)
	return nil
}
