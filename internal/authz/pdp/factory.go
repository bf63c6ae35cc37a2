package pdp

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cerbos/cerbos-sdk-go/cerbos"

	"postgate/internal/authz/metrics"
	"postgate/internal/platform/config"
	"postgate/pkg/platform/circuit"
)

// NewFromConfig builds the configured transport wrapped in a fail-closed Client.
func NewFromConfig(cfg config.PDP, logger *slog.Logger, m *metrics.Metrics) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var transport Transport
	switch cfg.Backend {
	case "cerbos", "":
		var dial []cerbos.Opt
		if cfg.Plaintext {
			dial = append(dial, cerbos.WithPlaintext())
		}
		cerbosPDP, err := NewCerbos(cfg.Addr(), WithPolicyVersion(cfg.PolicyVersion), WithDialOptions(dial...))
		if err != nil {
			return nil, err
		}
		transport = cerbosPDP
	case "cedar":
		var src []byte
		if cfg.PolicyFile != "" {
			b, err := os.ReadFile(cfg.PolicyFile)
			if err != nil {
				return nil, fmt.Errorf("read cedar policies: %w", err)
			}
			src = b
		}
		engine, err := NewCedar(src, logger)
		if err != nil {
			return nil, err
		}
		transport = engine
	case "openfga":
		fgaClient, err := NewOpenFGA(OpenFGAConfig{
			APIURL:   "http://" + cfg.Addr(),
			StoreID:  cfg.StoreID,
			ModelID:  cfg.ModelID,
			APIToken: cfg.APIToken,
		})
		if err != nil {
			return nil, err
		}
		transport = fgaClient
	default:
		return nil, fmt.Errorf("unknown pdp backend %q", cfg.Backend)
	}

	opts := []Option{
		WithBackend(cfg.Backend),
		WithTimeout(cfg.Timeout),
		WithMaxAttempts(cfg.MaxAttempts),
		WithLogger(logger),
		WithMetrics(m),
	}
	if cfg.BreakerThreshold > 0 {
		opts = append(opts, WithCircuitBreaker(circuit.New("pdp-"+cfg.Backend,
			circuit.WithFailureThreshold(cfg.BreakerThreshold),
			circuit.WithSuccessThreshold(1),
			circuit.WithCooldown(cfg.BreakerCooldown),
		)))
	}
	return NewClient(transport, opts...), nil
}
