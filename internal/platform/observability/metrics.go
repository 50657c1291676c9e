package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FragmentsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ranker_fragments_fetched_total",
		Help: "The total number of raw fragments fetched from source chats",
	})

	AdsFiltered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ranker_ads_filtered_total",
		Help: "Fragments dropped by the ad heuristic, by decision reason",
	}, []string{"reason"})

	RankingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ranker_runs_total",
		Help: "The total number of ranking runs by outcome",
	}, []string{"status"})

	RankingRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ranker_run_duration_seconds",
		Help:    "Duration of a full fetch-to-rank run",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
	})

	JudgeRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ranker_judge_request_duration_seconds",
		Help:    "Duration of LLM judge requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	JudgeScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ranker_judge_scores",
		Help:    "Distribution of normalized relevance scores",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})

	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ranker_deliveries_total",
		Help: "Delivered ranked posts by delivery mode",
	}, []string{"mode"})

	LLMFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ranker_llm_fallbacks_total",
		Help: "LLM requests served by a fallback provider",
	}, []string{"from_provider", "to_provider"})

	LLMCircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ranker_llm_circuit_state",
		Help: "Circuit breaker state per provider (0 closed, 1 open)",
	}, []string{"provider"})

	LLMProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ranker_llm_provider_available",
		Help: "Whether an LLM provider is configured and usable (1) or not (0)",
	}, []string{"provider"})

	TelegramFloodWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ranker_telegram_flood_waits_total",
		Help: "FLOOD_WAIT responses received by the user client",
	})
)
