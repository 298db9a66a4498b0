package api

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		models := v1.Group("/models")
		{
			models.GET("/info", s.handleModelInfo)
			models.GET("/getmodel", s.handleGetModel)
			models.GET("/latestmodel", s.handleLatestModel)
			models.GET("/trainersscores", s.handleTrainerScores)
		}
	}
}
