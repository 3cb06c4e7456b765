// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rewrite

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all rewrite routes with the router.
//
// Description:
//
//	Registers all /v1/rewrite/* endpoints with the given Gin router
//	group. The router group should already have any required
//	middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/rewrite - Rewrite a batch of files on disk
//	POST /v1/rewrite/source - Rewrite an inline source payload
//	POST /v1/parse - Inspect the tree a payload parses to
//	GET  /v1/rules - Describe the loaded rule set
//	GET  /v1/events - Subscribe to the rewrite event stream
//	GET  /v1/rewrite/health - Health check
//	GET  /v1/rewrite/ready - Readiness check
//
// Example:
//
//	svc, _ := rewrite.NewService(eng, rewrite.DefaultServiceConfig())
//	handlers := rewrite.NewHandlers(svc)
//
//	v1 := router.Group("/v1")
//	rewrite.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rw := rg.Group("/rewrite")
	{
		rw.POST("", handlers.HandleRewrite)
		rw.POST("/source", handlers.HandleRewriteSource)

		// Health checks
		rw.GET("/health", handlers.HandleHealth)
		rw.GET("/ready", handlers.HandleReady)
	}

	// Rule set inspection
	rg.GET("/rules", handlers.HandleRules)

	// Parse inspection for rule authors
	rg.POST("/parse", handlers.HandleParse)

	// Event stream
	rg.GET("/events", handlers.HandleEvents)
}
