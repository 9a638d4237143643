package models

// MapboxToken is one entry in the routing-API token pool.
type MapboxToken struct {
	Token  string `json:"token" bson:"token"`
	Active bool   `json:"active" bson:"active"`
}

// DistanceConfig is the configurations document for the routing-distance
// API: token pool, kill switch, and hit counters.
type DistanceConfig struct {
	ID             string        `json:"id" bson:"_id"`
	Status         bool          `json:"status" bson:"status"`
	MapboxStatus   bool          `json:"mapboxStatus" bson:"mapboxStatus"`
	MapboxTokens   []MapboxToken `json:"mapboxTokens" bson:"mapboxTokens"`
	HitCount       int64         `json:"hitCount" bson:"hitCount"`
	HitCountCreate int64         `json:"hitCountCreate" bson:"hitCountCreate"`
}

// DistanceConfigID keys the singleton routing-config document.
const DistanceConfigID = "DistanceAPI"
