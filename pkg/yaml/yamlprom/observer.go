// Package yamlprom exports load results and policy denials as Prometheus
// metrics.
//
// Metrics:
//   - <namespace>_documents_total: documents loaded, by result (ok, syntax,
//     security, construct)
//   - <namespace>_denials_total: subjects refused by the policy, by tag and
//     trust level
//
// Example:
//
//	obs := yamlprom.New(prometheus.DefaultRegisterer, "myapp")
//	v, err := yaml.Load(input, yaml.Restricted, yaml.WithObserver(obs))
package yamlprom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shapestone/safeyaml/pkg/yaml"
)

// Result labels of the documents counter.
const (
	ResultOK        = "ok"
	ResultSyntax    = "syntax"
	ResultSecurity  = "security"
	ResultConstruct = "construct"
)

// unregisteredTag replaces tags nothing is registered for, so that input
// cannot create label values at will.
const unregisteredTag = "unregistered"

// Observer counts documents and denials. It implements yaml.Observer and is
// safe for concurrent use.
type Observer struct {
	documents *prometheus.CounterVec
	denials   *prometheus.CounterVec
}

var _ yaml.Observer = (*Observer)(nil)

// New creates an Observer and registers its metrics with reg.
func New(reg prometheus.Registerer, namespace string) *Observer {
	o := &Observer{
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_total",
				Help:      "Total number of YAML documents loaded, by result",
			},
			[]string{"result"},
		),
		denials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "denials_total",
				Help:      "Total number of tags and types refused by the load or dump policy",
			},
			[]string{"tag", "trust"},
		),
	}
	reg.MustRegister(o.documents, o.denials)
	return o
}

// DocumentLoaded counts one document under the result err classifies as.
func (o *Observer) DocumentLoaded(index int, err error) {
	o.documents.WithLabelValues(Result(err)).Inc()
}

// Denied counts one refused subject.
func (o *Observer) Denied(s yaml.Subject, trust yaml.TrustLevel) {
	o.denials.WithLabelValues(subjectLabel(s), trust.String()).Inc()
}

// Result classifies a load error into one of the result labels.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case yaml.IsSecurityError(err):
		return ResultSecurity
	case yaml.IsSyntaxError(err):
		return ResultSyntax
	}
	return ResultConstruct
}

func subjectLabel(s yaml.Subject) string {
	switch {
	case s.Type != nil:
		return "type:" + s.Type.String()
	case !s.Registered:
		return unregisteredTag
	}
	return s.Tag
}
