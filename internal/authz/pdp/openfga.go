package pdp

import (
	"context"
	"fmt"

	openfga "github.com/openfga/go-sdk"
	fga "github.com/openfga/go-sdk/client"
	"github.com/openfga/go-sdk/credentials"

	"postgate/internal/authz"
)

// OpenFGAConfig configures the OpenFGA transport.
type OpenFGAConfig struct {
	APIURL   string
	StoreID  string
	ModelID  string // optional but recommended in prod
	APIToken string // optional
}

// OpenFGA asks an OpenFGA server whether user:<principal> has the action
// relation on <kind>:<id>. Roles and resource ownership travel as
// contextual tuples so no relationship data has to be written up front.
type OpenFGA struct {
	c *fga.OpenFgaClient
}

// NewOpenFGA builds the SDK client with its own retries turned off; retry
// policy belongs to Client.
func NewOpenFGA(cfg OpenFGAConfig) (*OpenFGA, error) {
	conf := &fga.ClientConfiguration{
		ApiUrl:      cfg.APIURL,
		StoreId:     cfg.StoreID,
		RetryParams: &openfga.RetryParams{MaxRetry: 0, MinWaitInMs: 1},
	}
	if cfg.ModelID != "" {
		conf.AuthorizationModelId = cfg.ModelID
	}
	if cfg.APIToken != "" {
		conf.Credentials = &credentials.Credentials{
			Method: credentials.CredentialsMethodApiToken,
			Config: &credentials.Config{ApiToken: cfg.APIToken},
		}
	}

	client, err := fga.NewSdkClient(conf)
	if err != nil {
		return nil, fmt.Errorf("openfga client init: %w", err)
	}
	return &OpenFGA{c: client}, nil
}

func (o *OpenFGA) Decide(ctx context.Context, req authz.DecisionRequest) (bool, error) {
	resp, err := o.c.Check(ctx).Body(checkRequest(req)).Execute()
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("%w: openfga check: %w", ErrUnavailable, err)
	}
	if resp == nil || resp.Allowed == nil {
		return false, fmt.Errorf("%w: openfga check returned no decision", ErrProtocol)
	}
	return *resp.Allowed, nil
}

// checkRequest maps a decision request onto an OpenFGA check.
func checkRequest(req authz.DecisionRequest) fga.ClientCheckRequest {
	user := "user:" + req.Principal.ID
	object := req.Resource.Kind + ":" + req.Resource.ID

	tuples := make([]fga.ClientContextualTupleKey, 0, len(req.Principal.Roles)+1)
	for _, role := range req.Principal.Roles {
		tuples = append(tuples, fga.ClientContextualTupleKey{
			User:     user,
			Relation: "assignee",
			Object:   "role:" + role,
		})
	}
	if owner := req.Resource.Attributes[authz.OwnerAttribute]; owner != "" {
		tuples = append(tuples, fga.ClientContextualTupleKey{
			User:     "user:" + owner,
			Relation: "owner",
			Object:   object,
		})
	}

	checkCtx := map[string]interface{}{}
	for k, v := range req.Resource.Attributes {
		checkCtx["resource_"+k] = v
	}
	for k, v := range req.Principal.Attributes {
		checkCtx["principal_"+k] = v
	}

	return fga.ClientCheckRequest{
		User:             user,
		Relation:         "can_" + string(req.Action),
		Object:           object,
		ContextualTuples: tuples,
		Context:          &checkCtx,
	}
}
