// Package main Vestire Payments API
//
//	@title						Vestire Payments API
//	@version					1.0
//	@description				Checkout and payment reconciliation for the Vestire storefront.
//
//	@host						localhost:8080
//	@BasePath					/api
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Admin bearer token. Format: "Bearer {token}"
//
//	@tag.name					Order
//	@tag.description			Checkout and order status
//
//	@tag.name					Payment
//	@tag.description			Invoice creation and status polling
//
//	@tag.name					Crypto
//	@tag.description			Crypto provider reads
//
//	@tag.name					Webhook
//	@tag.description			Provider callbacks
//
//	@tag.name					Admin
//	@tag.description			Operator views and webhook replay
package main
