// Package domain holds the entities the crawler records: tracked internet domains
// and the URL paths discovered on them. The types carry no storage or transport
// concerns so every layer can share them.
package domain
