package domain

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
	RoleSystem Role = "system"
)

// Capability is a discrete permission. Capabilities are resolved from roles
// once, when the actor is built, so authorization checks never compare
// identity strings.
type Capability string

const (
	CapManageAnyOrder  Capability = "manage-any-order"
	CapFulfilOwnOrders Capability = "fulfil-own-orders"
	CapCancelOwnOrder  Capability = "cancel-own-order"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin:  {CapManageAnyOrder, CapFulfilOwnOrders, CapCancelOwnOrder},
	RoleSystem: {CapManageAnyOrder},
	RoleSeller: {CapFulfilOwnOrders},
	RoleBuyer:  {CapCancelOwnOrder},
}

// Actor is an authenticated principal with its capability set already
// resolved. Authentication itself happens upstream.
type Actor struct {
	ID   string
	caps map[Capability]struct{}
}

// NewActor builds an actor from the roles the authentication layer resolved.
func NewActor(id string, roles ...Role) Actor {
	caps := make(map[Capability]struct{})
	for _, role := range roles {
		for _, c := range roleCapabilities[role] {
			caps[c] = struct{}{}
		}
	}
	return Actor{ID: id, caps: caps}
}

// SystemActor is the internal principal used for automatic transitions such
// as advancing an order when its payment completes.
func SystemActor() Actor {
	return NewActor("system", RoleSystem)
}

// Can reports whether the actor holds the capability.
func (a Actor) Can(c Capability) bool {
	_, ok := a.caps[c]
	return ok
}

// CanManageOrder reports whether the actor may drive the given order through
// status transitions: admins and the system may manage any order, sellers
// only their own.
func (a Actor) CanManageOrder(order *Order) bool {
	if a.Can(CapManageAnyOrder) {
		return true
	}
	return a.Can(CapFulfilOwnOrders) && order.SellerID == a.ID
}

// CanCancelOrder additionally allows the buyer to cancel their own order.
func (a Actor) CanCancelOrder(order *Order) bool {
	if a.CanManageOrder(order) {
		return true
	}
	return a.Can(CapCancelOwnOrder) && order.BuyerID == a.ID
}
