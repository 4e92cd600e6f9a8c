package metadata

import "github.com/ThreeDotsLabs/watermill/message"

// FromWatermill copies the headers of a consumed message. The result is never nil.
func FromWatermill(md message.Metadata) Metadata {
	return Metadata(md).Clone()
}

// ToWatermill copies metadata into headers for an outgoing message.
func ToWatermill(md Metadata) message.Metadata {
	return message.Metadata(md.Clone())
}
