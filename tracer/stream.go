package tracer

// Stream queries take a flat slice of independent rays and share node visits
// by processing them in packet-sized groups; the remainder falls back to the
// single-ray engine. Rays in a stream stay independent: the grouping is a
// work-sharing detail, not a semantic one.

// IntersectStream updates every ray in the stream with its nearest accepted
// hit.
func (tr *Traverser) IntersectStream(rays []Ray) {
	i := 0
	for ; i+PacketSize <= len(rays); i += PacketSize {
		var p RayPacket
		for k := 0; k < PacketSize; k++ {
			p.SetRay(k, rays[i+k])
		}
		tr.IntersectPacket(&p)
		for k := 0; k < PacketSize; k++ {
			rays[i+k] = p.Ray(k)
		}
	}
	for ; i < len(rays); i++ {
		tr.Intersect(&rays[i])
	}
}

// OccludedStream writes one existence answer per ray. occluded must be at
// least as long as rays.
func (tr *Traverser) OccludedStream(rays []Ray, occluded []bool) {
	i := 0
	for ; i+PacketSize <= len(rays); i += PacketSize {
		var p RayPacket
		for k := 0; k < PacketSize; k++ {
			p.SetRay(k, rays[i+k])
		}
		mask := tr.OccludedPacket(&p)
		for k := 0; k < PacketSize; k++ {
			occluded[i+k] = mask[k]
		}
	}
	for ; i < len(rays); i++ {
		occluded[i] = tr.Occluded(&rays[i])
	}
}
