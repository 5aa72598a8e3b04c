package idle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"crewbase/internal/settings"
)

type MonitorSuite struct {
	suite.Suite
	start time.Time
}

func (s *MonitorSuite) SetupTest() {
	s.start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestMonitorSuite(t *testing.T) {
	suite.Run(t, new(MonitorSuite))
}

// 1 minute idle window, 5 second countdown.
func (s *MonitorSuite) newMonitor() *Monitor {
	return NewMonitor(settings.SessionSettings{
		InactivityTimeoutMinutes: 1,
		WarningCountdownSeconds:  5,
	}, s.start)
}

func (s *MonitorSuite) at(d time.Duration) time.Time {
	return s.start.Add(d)
}

func (s *MonitorSuite) TestIdleTimeline() {
	m := s.newMonitor()

	s.Run("stays active inside the idle window", func() {
		s.Equal(PhaseActive, m.Tick(s.at(59*time.Second)))
	})

	s.Run("warns when the window elapses", func() {
		s.Equal(PhaseWarning, m.Tick(s.at(60*time.Second)))
	})

	s.Run("expires when the countdown elapses", func() {
		s.Equal(PhaseWarning, m.Tick(s.at(64*time.Second)))
		s.Equal(PhaseExpired, m.Tick(s.at(65*time.Second)))
	})

	s.Run("expired is terminal", func() {
		m.Activity(s.at(66 * time.Second))
		s.Equal(PhaseExpired, m.Tick(s.at(70*time.Second)))
	})
}

func (s *MonitorSuite) TestActivityDuringWarning() {
	m := s.newMonitor()
	s.Equal(PhaseWarning, m.Tick(s.at(60*time.Second)))

	// activity at 63s cancels the countdown and restarts the idle window
	m.Activity(s.at(63 * time.Second))
	s.Equal(PhaseActive, m.Phase())

	// the next warning is a full window after the new activity mark
	s.Equal(PhaseActive, m.Tick(s.at(65*time.Second)))
	s.Equal(PhaseActive, m.Tick(s.at(122*time.Second)))
	s.Equal(PhaseWarning, m.Tick(s.at(123*time.Second)))
}

// Activity processed at the same instant the countdown would hit zero wins:
// expiry only ever happens through Tick, so whichever input is applied first
// decides, and the runner applies activity first.
func (s *MonitorSuite) TestActivityBeatsSimultaneousExpiry() {
	m := s.newMonitor()
	m.Tick(s.at(60 * time.Second))

	deadline := s.at(65 * time.Second)
	m.Activity(deadline)
	s.Equal(PhaseActive, m.Tick(deadline))
}

func (s *MonitorSuite) TestAcknowledge() {
	m := s.newMonitor()
	m.Tick(s.at(60 * time.Second))

	m.Acknowledge(s.at(62 * time.Second))
	s.Equal(PhaseActive, m.Phase())
}

func (s *MonitorSuite) TestSingleTickPastBothDeadlines() {
	m := s.newMonitor()
	// process was descheduled; one tick lands well past warning + countdown
	s.Equal(PhaseExpired, m.Tick(s.at(10*time.Minute)))
}

func (s *MonitorSuite) TestRemaining() {
	m := s.newMonitor()

	s.Run("active counts down the idle window", func() {
		s.Equal(45*time.Second, m.Remaining(s.at(15*time.Second)))
	})

	s.Run("warning counts down the countdown", func() {
		m.Tick(s.at(60 * time.Second))
		s.Equal(3*time.Second, m.Remaining(s.at(62*time.Second)))
	})

	s.Run("never negative", func() {
		s.Equal(time.Duration(0), m.Remaining(s.at(2*time.Hour)))
	})

	s.Run("zero once expired", func() {
		m.Tick(s.at(65 * time.Second))
		s.Equal(time.Duration(0), m.Remaining(s.at(65*time.Second)))
	})
}
