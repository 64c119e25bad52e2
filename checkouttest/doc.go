// Package checkouttest runs an in-memory checkout order API for tests.
//
// The server verifies the Klarna Authorization digest on every request,
// stores orders in memory and can be scripted to answer with redirects:
//
//	srv := checkouttest.NewServer("sharedSecret")
//	defer srv.Close()
//
//	o, _ := order.New(conn, order.WithBaseURI(srv.OrdersURL()))
package checkouttest
