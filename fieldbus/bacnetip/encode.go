package bacnetip

import (
	"encoding/binary"
	"math"
)

// Protocol constants for the small slice of BACnet/IP the gateway speaks:
// unicast unconfirmed-address BVLC framing carrying confirmed ReadProperty
// and WriteProperty requests.
const (
	bvlcType            = 0x81
	bvlcOriginalUnicast = 0x0A

	npduVersion        = 0x01
	npduExpectingReply = 0x04

	pduConfirmedRequest = 0x00
	maxAPDUAccepted1476 = 0x05

	serviceReadProperty  = 12
	serviceWriteProperty = 15

	propertyPresentValue = 85
)

// Application tag numbers for the value encodings the gateway produces
// and consumes.
const (
	tagNull       = 0
	tagBoolean    = 1
	tagUnsigned   = 2
	tagSigned     = 3
	tagReal       = 4
	tagEnumerated = 9
)

// encodeObjectID writes a BACnetObjectIdentifier as context tag 0:
// tag octet 0x0C followed by (type << 22) | instance big-endian.
func encodeObjectID(buf []byte, typeID uint16, instance uint32) []byte {
	buf = append(buf, 0x0C)
	var id [4]byte
	binary.BigEndian.PutUint32(id[:], uint32(typeID)<<22|instance&0x3FFFFF)
	return append(buf, id[:]...)
}

// encodePropertyID writes the property identifier as context tag 1 with a
// one-octet value. presentValue (85) fits a single octet.
func encodePropertyID(buf []byte, property byte) []byte {
	return append(buf, 0x19, property)
}

// encodeAppReal writes value as a REAL application tag (0x44 + float32).
func encodeAppReal(buf []byte, value float64) []byte {
	buf = append(buf, 0x44)
	var f [4]byte
	binary.BigEndian.PutUint32(f[:], math.Float32bits(float32(value)))
	return append(buf, f[:]...)
}

// encodeAppUnsigned writes value as an UNSIGNED application tag, using
// the minimal octet count.
func encodeAppUnsigned(buf []byte, value uint32) []byte {
	octets := unsignedOctets(value)
	buf = append(buf, byte(tagUnsigned<<4|len(octets)))
	return append(buf, octets...)
}

// encodeAppEnumerated writes value as an ENUMERATED application tag.
func encodeAppEnumerated(buf []byte, value uint32) []byte {
	octets := unsignedOctets(value)
	buf = append(buf, byte(tagEnumerated<<4|len(octets)))
	return append(buf, octets...)
}

// encodeAppNull writes a NULL application tag. Writing NULL to a
// commandable property relinquishes the write at that priority.
func encodeAppNull(buf []byte) []byte {
	return append(buf, 0x00)
}

func unsignedOctets(value uint32) []byte {
	switch {
	case value < 1<<8:
		return []byte{byte(value)}
	case value < 1<<16:
		return []byte{byte(value >> 8), byte(value)}
	case value < 1<<24:
		return []byte{byte(value >> 16), byte(value >> 8), byte(value)}
	}
	return []byte{byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value)}
}

// wrapBVLC prepends the BVLC and NPDU headers to an APDU and fixes up
// the total frame length.
func wrapBVLC(apdu []byte) []byte {
	frame := make([]byte, 0, 6+len(apdu))
	frame = append(frame, bvlcType, bvlcOriginalUnicast, 0, 0)
	frame = append(frame, npduVersion, npduExpectingReply)
	frame = append(frame, apdu...)
	binary.BigEndian.PutUint16(frame[2:4], uint16(len(frame)))
	return frame
}

// encodeReadProperty builds a ReadProperty-Request frame for the
// presentValue property of one object.
func encodeReadProperty(invokeID byte, typeID uint16, instance uint32) []byte {
	apdu := []byte{pduConfirmedRequest, maxAPDUAccepted1476, invokeID, serviceReadProperty}
	apdu = encodeObjectID(apdu, typeID, instance)
	apdu = encodePropertyID(apdu, propertyPresentValue)
	return wrapBVLC(apdu)
}

// encodeWriteProperty builds a WriteProperty-Request frame. The value
// encoding follows the object type: REAL for analog, ENUMERATED for
// binary, UNSIGNED for multi-state, NULL when release is set. Priority
// travels as context tag 4.
func encodeWriteProperty(invokeID byte, typeID uint16, instance uint32, value float64, priority int, release bool) []byte {
	apdu := []byte{pduConfirmedRequest, maxAPDUAccepted1476, invokeID, serviceWriteProperty}
	apdu = encodeObjectID(apdu, typeID, instance)
	apdu = encodePropertyID(apdu, propertyPresentValue)

	apdu = append(apdu, 0x3E) // opening tag 3: property value
	switch {
	case release:
		apdu = encodeAppNull(apdu)
	case isAnalog(typeID):
		apdu = encodeAppReal(apdu, value)
	case isBinary(typeID):
		apdu = encodeAppEnumerated(apdu, uint32(value))
	default:
		apdu = encodeAppUnsigned(apdu, uint32(value))
	}
	apdu = append(apdu, 0x3F) // closing tag 3

	apdu = append(apdu, 0x49, byte(priority)) // context tag 4: priority
	return wrapBVLC(apdu)
}
