// Package checkout builds signed connectors for the Klarna Checkout API.
//
// New wires the default HTTP transport, a digest algorithm and the shared
// secret into a [connector.Connector]. Resources such as [order.Order] use
// the connector to create, fetch and update themselves:
//
//	conn, err := checkout.New(secret, checkout.WithTransportOptions(transport.WithTimeout(5*time.Second)))
//	if err != nil {
//		return err
//	}
//
//	o, err := order.New(conn, order.WithBaseURI(order.TestBaseURI))
//
// Package checkouttest provides an in-memory server to run this against.
package checkout
