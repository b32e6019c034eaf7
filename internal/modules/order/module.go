package order

import (
	"github.com/jmoiron/sqlx"

	"github.com/JoelKayemba/dream-market-sub000/internal/modules/order/application"
	"github.com/JoelKayemba/dream-market-sub000/internal/modules/order/infrastructure/persistence/postgres"
	order_http "github.com/JoelKayemba/dream-market-sub000/internal/modules/order/interfaces/http"
)

type Module struct {
	service *application.OrderService
	handler *order_http.OrderHandler
}

func NewModule(db *sqlx.DB, events application.OrderEvents) *Module {
	repo := postgres.NewPgOrderRepository(db)
	service := application.NewOrderService(repo, events)
	handler := order_http.NewOrderHandler(service)

	return &Module{service: service, handler: handler}
}

func (m *Module) HTTPHandler() *order_http.OrderHandler {
	return m.handler
}

func (m *Module) Service() *application.OrderService {
	return m.service
}
