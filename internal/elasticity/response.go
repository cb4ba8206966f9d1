package elasticity

import "math"

// DemandAt predicts demand at newPrice on a constant-elasticity (log-log)
// demand curve through (currentPrice, currentDemand). Non-positive prices
// leave demand unchanged; the result is never negative.
func DemandAt(currentDemand, elasticity, currentPrice, newPrice float64) float64 {
	if currentPrice <= 0 || newPrice <= 0 {
		return currentDemand
	}
	demand := currentDemand * math.Pow(newPrice/currentPrice, elasticity)
	if demand < 0 {
		return 0
	}
	return demand
}

// TrendPercent is the relative change from current to predicted demand in
// percent, or 0 when current demand is not positive.
func TrendPercent(currentDemand, predictedDemand float64) float64 {
	if currentDemand <= 0 {
		return 0
	}
	return (predictedDemand - currentDemand) / currentDemand * 100
}
