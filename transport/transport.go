package transport

import (
	"github.com/jrife/tokenbook/transport/services"
)

// TokenbookServer describes an interface
// that will be passed to each type of
// frontend. Each frontend provides support
// for a different type of protocol. The
// idea here is to decouple the inner
// workings of a tokenbook node from the
// protocol that they use to communicate
type TokenbookServer interface {
	services.FavoritesService
	services.PriceService
}
