package touch

// Settled reports whether the settling phase is over.
func (s *State) Settled() bool {
	return s.StartCycles >= StartCycles
}

// Filter feeds a new level into the baseline filter.
//
// During settling the baseline tracks the level directly. Afterwards a first
// order filter moves it slowly toward the level (much slower while a touch is
// held so a long press is not absorbed), and the baseline is pulled down
// immediately whenever the level drops below it.
func (s *State) Filter(level uint16) {
	s.Level = level

	if !s.Settled() {
		s.Baseline = level
		s.StartCycles++
		return
	}

	mul, shift := uint32(BaseFilterMul), uint(BaseFilterShift)
	if s.Active.Active() {
		mul, shift = BaseActiveMul, BaseActiveShift
	}
	s.Baseline = uint16((uint32(s.Baseline)*mul + uint32(level)) >> shift)

	if level < s.Baseline {
		s.Baseline = level
	}
}

// Excursion returns level - baseline, clamped at zero.
func (s *State) Excursion() int32 {
	e := int32(s.Level) - int32(s.Baseline)
	if e < 0 {
		return 0
	}
	return e
}

// Detect compares the excursion against the threshold and shifts the result
// into the history. The bound is lowered by the hysteresis while active and
// raised by it while inactive.
func (s *State) Detect() History {
	bound := int32(Threshold + Hysteresis)
	if s.Active.Active() {
		bound = Threshold - Hysteresis
	}
	s.Active = s.Active.Next(s.Excursion() > bound)
	return s.Active
}

// Update runs the filter and the detector for one pass.
func (s *State) Update(level uint16) History {
	s.Filter(level)
	return s.Detect()
}
