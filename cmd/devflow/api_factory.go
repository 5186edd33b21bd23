package main

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/bveerendrakumar/devflow/internal/api"
	"github.com/bveerendrakumar/devflow/internal/config"
)

// createClient creates an API client for the given model name using the
// loaded configuration for credentials and Bedrock settings.
func createClient(cfg *config.Config, model string) (*api.Client, error) {
	key, err := config.GetAPIKey(cfg)
	if err != nil && !cfg.Bedrock.Enabled {
		return nil, err
	}

	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(model),
		APIKey:        key,
		UseAWSBedrock: cfg.Bedrock.Enabled,
		AWSRegion:     cfg.Bedrock.Region,
		AWSProfile:    cfg.Bedrock.Profile,
	})
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}
	return client, nil
}

// roleClients holds one client per pipeline role.
type roleClients struct {
	planner   *api.Client
	validator *api.Client
	executor  *api.Client
}

func createRoleClients(cfg *config.Config) (*roleClients, error) {
	planner, err := createClient(cfg, cfg.Models.Planner)
	if err != nil {
		return nil, fmt.Errorf("planner client: %w", err)
	}
	validator, err := createClient(cfg, cfg.Models.Validator)
	if err != nil {
		return nil, fmt.Errorf("validator client: %w", err)
	}
	executor, err := createClient(cfg, cfg.Models.Executor)
	if err != nil {
		return nil, fmt.Errorf("executor client: %w", err)
	}
	return &roleClients{planner: planner, validator: validator, executor: executor}, nil
}

// usage sums API calls and estimated cost across the three role clients.
func (rc *roleClients) usage() (calls int, cost float64) {
	for _, c := range []*api.Client{rc.planner, rc.validator, rc.executor} {
		calls += c.Tracker().Calls()
		cost += c.Tracker().Cost()
	}
	return calls, cost
}
