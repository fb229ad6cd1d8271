package settlement

// FeeSplit divides price between merchant and platform. The platform share is
// floor(price*feePercent/100), so rounding always favors the merchant.
// Shares are never negative and always sum exactly to price.
//
// feePercent must be in [0,100]; out-of-range values are clamped by the
// engine before reaching here, but FeeSplit also guards so direct callers
// cannot produce a platform share above price.
func FeeSplit(price uint64, feePercent uint8) (merchantShare, platformShare uint64) {
	if feePercent > 100 {
		feePercent = 100
	}
	fee := uint64(feePercent)
	// Decomposed so the multiplication cannot overflow for large prices:
	// with price = 100q + r, floor(price*fee/100) == q*fee + floor(r*fee/100).
	platformShare = price/100*fee + price%100*fee/100
	merchantShare = price - platformShare
	return merchantShare, platformShare
}
