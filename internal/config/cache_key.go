package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// WorksheetPayloadKey returns the cache key for a generated worksheet payload.
func (r *CacheKeyStruct) WorksheetPayloadKey(worksheetID string) string {
	return fmt.Sprintf("worksheet:%s:payload", worksheetID)
}

// SessionAnswersKey returns the cache key for a session's answer snapshot hash.
func (r *CacheKeyStruct) SessionAnswersKey(sessionID string) string {
	return fmt.Sprintf("session:%s:answers", sessionID)
}

// SessionWorksheetKey returns the cache key mapping a session to its worksheet.
func (r *CacheKeyStruct) SessionWorksheetKey(sessionID string) string {
	return fmt.Sprintf("session:%s:worksheet", sessionID)
}

var CacheKey = NewCacheKeyStruct()
