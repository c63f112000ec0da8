package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fulfillment/internal/adapters/out/bus"
	"fulfillment/internal/core/domain/model/events"
	"fulfillment/internal/core/domain/model/order"

	"github.com/labstack/echo/v4"
)

// DefaultHeartbeat is how often an idle stream sends a comment line to keep proxies from
// closing it.
const DefaultHeartbeat = 25 * time.Second

// EventSource is where the stream endpoint subscribes. *bus.Hub implements it.
type EventSource interface {
	Subscribe(topics ...events.Topic) *bus.Subscription
}

// topicsFor lists the topics a principal receives. A courier follows the pool of the
// city in their token, or the one named by the city query parameter.
func topicsFor(p Principal, city string) []events.Topic {
	id := p.Actor.ID()
	switch p.Actor.Role() {
	case order.RoleCustomer:
		return []events.Topic{events.CustomerTopic(id)}
	case order.RoleShopOwner:
		return []events.Topic{events.ShopTopic(id)}
	case order.RoleCourier:
		topics := []events.Topic{events.CourierTopic(id)}
		if city == "" {
			city = p.City
		}
		if events.NormalizeCity(city) != "" {
			topics = append(topics, events.CourierPoolTopic(city))
		}
		return topics
	case order.RoleAdmin:
		return []events.Topic{events.AdminTopic}
	default:
		return nil
	}
}

// Stream handles GET /api/v1/events - pushes the caller's notifications as server-sent
// events until the client goes away or falls too far behind.
func (s *Server) Stream(c echo.Context) error {
	p, err := principalOf(c)
	if err != nil {
		return err
	}
	sub := s.events.Subscribe(topicsFor(p, c.QueryParam("city"))...)
	defer sub.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case e, ok := <-sub.Events():
			if !ok {
				s.logger.InfoContext(ctx, "event stream dropped", "actor", p.Actor.String(), "lagged", sub.Lagged())
				return nil
			}
			if err := writeEvent(w, e); err != nil {
				s.logger.WarnContext(ctx, "write event", "kind", e.Kind(), "error", err)
				return nil
			}
			w.Flush()
		}
	}
}

func writeEvent(w *echo.Response, e events.Event) error {
	envelope, err := events.NewEnvelope(e)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind(), data)
	return err
}
