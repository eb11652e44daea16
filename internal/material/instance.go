package material

import (
	"github.com/BANANASJIM/violet/internal/descriptor"
)

// MaterialInstance is the common surface both PBR and Unlit instances
// implement (§4.5, "PBRMaterialInstance (Unlit analogous)").
type MaterialInstance interface {
	MaterialID() uint32
	create() error
	cleanup()
}

// PBRMaterialInstance implements §4.5's PBR variant: one material_id row in
// the shared MaterialData SSBO plus a CPU cache of the last-written values.
type PBRMaterialInstance struct {
	descriptors *descriptor.Manager
	material    *Material
	materialID  uint32
	data        MaterialData
}

func newPBRInstance(descriptors *descriptor.Manager, mat *Material) *PBRMaterialInstance {
	return &PBRMaterialInstance{descriptors: descriptors, material: mat, data: MaterialData{
		BaseColorFactor: [4]float32{1, 1, 1, 1},
		Metallic:        1,
		Roughness:       1,
		NormalScale:     1,
		AlphaCutoff:     0.5,
	}}
}

func (p *PBRMaterialInstance) create() error {
	p.materialID = p.descriptors.AllocateMaterialData()
	if p.materialID == 0 {
		return errMaterialDataExhausted
	}
	p.descriptors.UpdateMaterialData(p.materialID, encodeMaterialData(p.data))
	return nil
}

func (p *PBRMaterialInstance) cleanup() {
	if p.materialID == 0 {
		return
	}
	row := p.descriptors.ReadMaterialData(p.materialID)
	for _, off := range []int{baseColorTexOffset, mrTexOffset, normalTexOffset, occlusionTexOffset, emissiveTexOffset} {
		if idx := getU32(row[off:]); idx != 0 {
			p.descriptors.FreeBindlessTexture(idx)
		}
	}
	p.descriptors.FreeMaterialData(p.materialID)
	p.materialID = 0
}

func (p *PBRMaterialInstance) MaterialID() uint32 { return p.materialID }

// setTexture implements the four-step texture setter of §4.5: read the
// current row, free the old index, allocate the new one, write the row
// back.
func (p *PBRMaterialInstance) setTexture(offset int, img descriptor.BindlessImage) uint32 {
	row := p.descriptors.ReadMaterialData(p.materialID)
	if row != nil {
		if old := getU32(row[offset:]); old != 0 {
			p.descriptors.FreeBindlessTexture(old)
		}
	}
	var newIdx uint32
	if img != nil {
		newIdx = p.descriptors.AllocateBindlessTexture(img)
	}
	if row == nil {
		row = encodeMaterialData(p.data)
	}
	putU32(row[offset:], newIdx)
	p.descriptors.UpdateMaterialData(p.materialID, row)
	return newIdx
}

func (p *PBRMaterialInstance) SetBaseColorTexture(img descriptor.BindlessImage) { p.data.BaseColorTexIndex = p.setTexture(baseColorTexOffset, img) }
func (p *PBRMaterialInstance) SetMetallicRoughnessTexture(img descriptor.BindlessImage) { p.data.MrTexIndex = p.setTexture(mrTexOffset, img) }
func (p *PBRMaterialInstance) SetNormalTexture(img descriptor.BindlessImage) { p.data.NormalTexIndex = p.setTexture(normalTexOffset, img) }
func (p *PBRMaterialInstance) SetOcclusionTexture(img descriptor.BindlessImage) { p.data.OcclusionTexIndex = p.setTexture(occlusionTexOffset, img) }
func (p *PBRMaterialInstance) SetEmissiveTexture(img descriptor.BindlessImage) { p.data.EmissiveTexIndex = p.setTexture(emissiveTexOffset, img) }

// UpdateMaterialData implements §4.5 update_material_data: copy the CPU
// cache into the SSBO row, preserving whatever texture indices are
// currently stored there.
func (p *PBRMaterialInstance) UpdateMaterialData(d MaterialData) {
	d.BaseColorTexIndex = p.data.BaseColorTexIndex
	d.MrTexIndex = p.data.MrTexIndex
	d.NormalTexIndex = p.data.NormalTexIndex
	d.OcclusionTexIndex = p.data.OcclusionTexIndex
	d.EmissiveTexIndex = p.data.EmissiveTexIndex
	p.data = d
	p.descriptors.UpdateMaterialData(p.materialID, encodeMaterialData(p.data))
}

// UnlitMaterialInstance is the simpler analogue of §4.5: one base-color
// texture plus a flat tint, sharing the same SSBO row layout (unused fields
// stay at their zero value).
type UnlitMaterialInstance struct {
	descriptors *descriptor.Manager
	material    *Material
	materialID  uint32
	data        MaterialData
}

func newUnlitInstance(descriptors *descriptor.Manager, mat *Material) *UnlitMaterialInstance {
	return &UnlitMaterialInstance{descriptors: descriptors, material: mat, data: MaterialData{
		BaseColorFactor: [4]float32{1, 1, 1, 1},
	}}
}

func (u *UnlitMaterialInstance) create() error {
	u.materialID = u.descriptors.AllocateMaterialData()
	if u.materialID == 0 {
		return errMaterialDataExhausted
	}
	u.descriptors.UpdateMaterialData(u.materialID, encodeMaterialData(u.data))
	return nil
}

func (u *UnlitMaterialInstance) cleanup() {
	if u.materialID == 0 {
		return
	}
	row := u.descriptors.ReadMaterialData(u.materialID)
	if idx := getU32(row[baseColorTexOffset:]); idx != 0 {
		u.descriptors.FreeBindlessTexture(idx)
	}
	u.descriptors.FreeMaterialData(u.materialID)
	u.materialID = 0
}

func (u *UnlitMaterialInstance) MaterialID() uint32 { return u.materialID }

func (u *UnlitMaterialInstance) SetBaseColorTexture(img descriptor.BindlessImage) {
	row := u.descriptors.ReadMaterialData(u.materialID)
	if row != nil {
		if old := getU32(row[baseColorTexOffset:]); old != 0 {
			u.descriptors.FreeBindlessTexture(old)
		}
	} else {
		row = encodeMaterialData(u.data)
	}
	var newIdx uint32
	if img != nil {
		newIdx = u.descriptors.AllocateBindlessTexture(img)
	}
	putU32(row[baseColorTexOffset:], newIdx)
	u.data.BaseColorTexIndex = newIdx
	u.descriptors.UpdateMaterialData(u.materialID, row)
}

type materialError string

func (e materialError) Error() string { return string(e) }

const errMaterialDataExhausted = materialError("material data table exhausted")
