package mocks

//go:generate mockgen -destination=./mock_agent.go -package=mocks github.com/rxtech-lab/argo-optimizer/internal/strategy Agent
//go:generate mockgen -destination=./mock_engine.go -package=mocks github.com/rxtech-lab/argo-optimizer/internal/backtest/engine Engine
//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-optimizer/internal/backtest/engine/engine_v1/datasource DataSource
