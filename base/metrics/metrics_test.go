package metrics

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
}

func (s *MetricsTestSuite) TearDownTest() {
	viper.Reset()
}

func (s *MetricsTestSuite) TestShouldGiveUp() {
	mt := New("settlement").(*Metrics)
	s.False(mt.shouldGiveUp("settlement", defaultLevel))
	s.True(mt.shouldGiveUp("settlement", defaultLevel+1))

	viper.Set("metrics.disabled", []string{"settlement"})
	s.True(mt.shouldGiveUp("settlement", defaultLevel))
	s.False(mt.shouldGiveUp("order", defaultLevel))

	viper.Set("metrics.level", 5)
	s.False(mt.shouldGiveUp("order", 4))
}

func (s *MetricsTestSuite) TestSampleRate() {
	mt := New("settlement", WithoutPodName()).(*Metrics)
	s.Equal(1.0, mt.sampleRate("settlement"))

	viper.Set("metrics.sampleRate.settlement", 0.5)
	s.Equal(0.5, mt.sampleRate("settlement"))
}

func (s *MetricsTestSuite) TestBumpWithoutAgent() {
	// no datadog_host, bumps end up in debug logs
	mt := New("settlement")
	s.NotPanics(func() {
		mt.BumpSum("purchase", 1, "currency", "dai")
		mt.BumpAvg("fee", 1)
		mt.BumpHistogram("price", 10)
		mt.BumpTime("purchase.time", "currency", "native").End()
	})
}

func TestMetricsTestSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}
