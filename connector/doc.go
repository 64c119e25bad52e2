// Package connector signs requests for the Klarna Checkout API and applies
// the API's status code rules to a [Resource].
//
// A [Connector] supports two methods. [Retrieve] (GET) fetches the resource
// at its location and parses the returned JSON object into it.
// [CreateOrUpdate] (POST) sends the resource's marshalled state. Every
// request carries
//
//	Authorization: Klarna <digest(payload + secret)>
//
// Responses drive the resource:
//
//	200  body decoded and passed to Resource.Parse
//	201  Resource.SetLocation(Location)
//	301  Resource.SetLocation(Location), then handled as 302
//	302  followed with a GET for GET requests, returned otherwise
//	303  followed with a GET to Location
//	4xx/5xx  *StatusError
//
// Redirects are bounded by [WithMaxRedirects].
package connector
