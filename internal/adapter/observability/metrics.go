package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI provider requests by operation",
		},
		[]string{"provider", "operation"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI provider request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "operation"},
	)
	AIFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_fallbacks_total",
			Help: "Total number of operations absorbed by deterministic local fallback",
		},
		[]string{"operation"},
	)

	QuestionsAskedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_questions_asked_total",
			Help: "Total number of questions asked by difficulty",
		},
		[]string{"difficulty"},
	)
	AnswersEvaluatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_answers_evaluated_total",
			Help: "Total number of answers evaluated by resolution trigger",
		},
		[]string{"trigger"},
	)
	InterviewsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interviews_completed_total",
			Help: "Total number of interviews completed",
		},
	)
	TimerExpiriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_timer_expiries_total",
			Help: "Total number of question timers that expired before an explicit submit",
		},
	)

	// Score distribution over completed interviews (0..120).
	TotalScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_total_score",
			Help:    "Distribution of final interview scores",
			Buckets: []float64{0, 15, 30, 45, 60, 75, 90, 105, 120},
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(AIFallbacksTotal)
	prometheus.MustRegister(QuestionsAskedTotal)
	prometheus.MustRegister(AnswersEvaluatedTotal)
	prometheus.MustRegister(InterviewsCompletedTotal)
	prometheus.MustRegister(TimerExpiriesTotal)
	prometheus.MustRegister(TotalScoreHistogram)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// ObserveCompletion records the final score of a completed interview.
func ObserveCompletion(totalScore int) {
	InterviewsCompletedTotal.Inc()
	if totalScore >= 0 && totalScore <= 120 {
		TotalScoreHistogram.Observe(float64(totalScore))
	}
}
