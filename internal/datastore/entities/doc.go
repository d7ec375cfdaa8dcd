// Package entities defines the GORM models persisted by the composite service.
//
// recording_jobs is the completion barrier. voice_analyze and voice_content are
// written by the audio and text producers, voice_composite holds the fused
// result and composite_notifications records downstream deliveries.
package entities
