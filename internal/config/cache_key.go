package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// DirectoryKey returns the cache key for a directory snapshot, e.g. "courses".
func (r *CacheKeyStruct) DirectoryKey(entity string) string {
	return fmt.Sprintf("directory:%s", entity)
}

// SectionDirectoryKey returns the cache key for the sections of one program.
// programID 0 means every program.
func (r *CacheKeyStruct) SectionDirectoryKey(programID int) string {
	if programID == 0 {
		return r.DirectoryKey("sections")
	}
	return fmt.Sprintf("directory:sections:program:%d", programID)
}

// SectionDirectoryPattern matches every section snapshot key.
func (r *CacheKeyStruct) SectionDirectoryPattern() string {
	return "directory:sections*"
}

// ScheduleEventsChannel returns the Redis PubSub channel that carries schedule changes.
func (r *CacheKeyStruct) ScheduleEventsChannel() string {
	return "schedules:events"
}

var CacheKey = NewCacheKeyStruct()
