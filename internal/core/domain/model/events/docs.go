// Package events defines the typed notifications the fulfillment core publishes.
//
// Every event names its ordering key (the ShopOrder it concerns, or the Order for
// order-wide events) and the recipient topics it must reach. Publishers preserve order
// per key; nothing is promised across keys.
package events
