package repository

import (
	"gorm.io/gorm"
)

// orderLineBatchSize bounds the number of ids bound into a single IN clause
var orderLineBatchSize = 1000

// MerchantScope returns a GORM scope that filters merchant-owned rows.
// An empty merchant id matches nothing rather than everything.
func MerchantScope(merchantID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if merchantID == "" {
			return db.Where("1 = 0")
		}
		return db.Where("merchant_id = ?", merchantID)
	}
}

// chunkStrings splits ids into consecutive batches of at most size elements
func chunkStrings(ids []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
