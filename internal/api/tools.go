package api

import (
	"github.com/anthropics/anthropic-sdk-go"
)

// TaskToolDefinitions returns the function-calling schema for the four
// development task operations. All parameters are strings, matching the
// argument bags forwarded by the pipeline.
func TaskToolDefinitions() []anthropic.ToolUnionParam {
	return []anthropic.ToolUnionParam{
		{
			OfTool: &anthropic.ToolParam{
				Name:        "generate_code",
				Description: anthropic.String("Generate source code for a described component or feature."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{
						"spec": map[string]interface{}{
							"type":        "string",
							"description": "Description of the component or feature to generate",
						},
						"language": map[string]interface{}{
							"type":        "string",
							"description": "Target programming language (optional)",
						},
					},
					Required: []string{"spec"},
				},
			},
		},
		{
			OfTool: &anthropic.ToolParam{
				Name:        "review_code",
				Description: anthropic.String("Review a piece of code and report findings."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{
						"code": map[string]interface{}{
							"type":        "string",
							"description": "The code to review",
						},
						"focus": map[string]interface{}{
							"type":        "string",
							"description": "Optional review focus (e.g., 'security', 'performance')",
						},
					},
					Required: []string{"code"},
				},
			},
		},
		{
			OfTool: &anthropic.ToolParam{
				Name:        "run_tests",
				Description: anthropic.String("Run the test suite for a target and summarize the outcome."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{
						"target": map[string]interface{}{
							"type":        "string",
							"description": "Package, module, or suite to test",
						},
					},
					Required: []string{"target"},
				},
			},
		},
		{
			OfTool: &anthropic.ToolParam{
				Name:        "deploy_artifact",
				Description: anthropic.String("Deploy a built artifact to an environment."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{
						"artifact": map[string]interface{}{
							"type":        "string",
							"description": "Path or name of the artifact to deploy",
						},
						"environment": map[string]interface{}{
							"type":        "string",
							"description": "Target environment (e.g., 'staging', 'production')",
						},
					},
					Required: []string{"artifact", "environment"},
				},
			},
		},
	}
}
