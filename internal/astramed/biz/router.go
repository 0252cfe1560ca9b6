package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kart-io/logger"
)

// MaxRouterIterations 路由的决策轮数上限：一次决策加一次动作，不做重新规划。
const MaxRouterIterations = 1

// Route 路由结果。
type Route string

const (
	RouteGeneral Route = "general"
	RouteMedical Route = "medical"
)

// ErrUndecided 策略无法给出路由结果。
var ErrUndecided = errors.New("router: undecided")

// Strategy 路由决策策略。
type Strategy interface {
	Name() string
	Decide(ctx context.Context, query string) (Route, error)
}

// Router 通用/医疗二分路由器。
type Router struct {
	strategy Strategy
}

// NewRouter 创建路由器。
func NewRouter(strategy Strategy) *Router {
	return &Router{strategy: strategy}
}

// Strategy 返回当前策略。
func (r *Router) Strategy() Strategy {
	return r.strategy
}

// Route 对去掉首尾空白的问题做一次决策。
func (r *Router) Route(ctx context.Context, query string) (Route, error) {
	query = strings.TrimSpace(query)

	var lastErr error
	for i := 0; i < MaxRouterIterations; i++ {
		route, err := r.strategy.Decide(ctx, query)
		if err == nil && validRoute(route) {
			logger.Debugw("route decided", "strategy", r.strategy.Name(), "route", string(route))
			return route, nil
		}
		if err == nil {
			err = fmt.Errorf("%w: %q", ErrUndecided, route)
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("router %s: %w", r.strategy.Name(), lastErr)
}

func validRoute(r Route) bool {
	return r == RouteGeneral || r == RouteMedical
}

// decideWithFallback 主决策出错时使用 fallback，fallback 为空时返回原错误。
func decideWithFallback(ctx context.Context, name string, fallback Strategy, query string, cause error) (Route, error) {
	if fallback == nil {
		return "", cause
	}
	logger.Warnw("router strategy failed, using fallback",
		"strategy", name,
		"fallback", fallback.Name(),
		"error", cause.Error(),
	)
	return fallback.Decide(ctx, query)
}
