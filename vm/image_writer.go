package vm

import "fmt"

// imageCapture tracks object-to-index mappings while a snapshot is being
// written. Objects are registered before their payloads are encoded, so
// reference cycles through lists and fields terminate.
type imageCapture struct {
	vm  *VM
	img *Image

	objIndex   map[Obj]uint32
	classIndex map[*ObjClass]uint32
	fnIndex    map[*ObjFn]uint32

	// core and coreMeta map the bootstrap classes and their metaclasses
	// back to the global names they restore through.
	core     map[*ObjClass]string
	coreMeta map[*ObjClass]string
}

// CaptureImage snapshots the VM's user state: every global, and every
// user class reachable from one, with its compiled methods. Fibers
// cannot be captured, and neither can closures that have captured
// variables; both are tied to a live stack.
func (vm *VM) CaptureImage() (*Image, error) {
	c := &imageCapture{
		vm:         vm,
		img:        &Image{Version: ImageVersion},
		objIndex:   make(map[Obj]uint32),
		classIndex: make(map[*ObjClass]uint32),
		fnIndex:    make(map[*ObjFn]uint32),
		core:       make(map[*ObjClass]string),
		coreMeta:   make(map[*ObjClass]string),
	}
	for slot := 0; slot < vm.coreGlobals; slot++ {
		v := vm.globals[slot]
		if !v.IsClass() {
			continue
		}
		name := vm.globalNames.Name(slot)
		c.core[v.AsClass()] = name
		c.coreMeta[v.AsClass().Class()] = name
	}

	c.img.MethodNames = vm.methodNames.Names()
	c.img.GlobalNames = vm.globalNames.Names()
	c.img.Globals = make([]ImageValue, len(vm.globals))
	for slot, v := range vm.globals {
		iv, err := c.value(v)
		if err != nil {
			return nil, fmt.Errorf("vm: capture global %q: %w",
				vm.globalNames.Name(slot), err)
		}
		c.img.Globals[slot] = iv
	}
	return c.img, nil
}

func (c *imageCapture) value(v Value) (ImageValue, error) {
	switch {
	case v.IsNull():
		return ImageValue{Tag: imageTagNull}, nil

	case v.IsBool():
		if v.AsBool() {
			return ImageValue{Tag: imageTagTrue}, nil
		}
		return ImageValue{Tag: imageTagFalse}, nil

	case v.IsNum():
		return ImageValue{Tag: imageTagNum, Num: v.AsNum()}, nil

	case v.IsClass():
		cls := v.AsClass()
		if name, ok := c.core[cls]; ok {
			return ImageValue{Tag: imageTagCoreClass, Str: name}, nil
		}
		if name, ok := c.coreMeta[cls]; ok {
			return ImageValue{Tag: imageTagCoreMeta, Str: name}, nil
		}
		idx, err := c.class(cls)
		if err != nil {
			return ImageValue{}, err
		}
		return ImageValue{Tag: imageTagClass, Index: idx}, nil

	case v.IsFn():
		idx, err := c.fn(v.AsFn())
		if err != nil {
			return ImageValue{}, err
		}
		return ImageValue{Tag: imageTagFn, Index: idx}, nil

	case v.IsFiber():
		return ImageValue{}, fmt.Errorf("cannot capture a fiber")

	default:
		idx, err := c.object(v.AsObj())
		if err != nil {
			return ImageValue{}, err
		}
		return ImageValue{Tag: imageTagObject, Index: idx}, nil
	}
}

func (c *imageCapture) object(o Obj) (uint32, error) {
	if idx, ok := c.objIndex[o]; ok {
		return idx, nil
	}
	idx := uint32(len(c.img.Objects))
	c.objIndex[o] = idx
	c.img.Objects = append(c.img.Objects, ImageObject{})

	switch obj := o.(type) {
	case *ObjString:
		c.img.Objects[idx] = ImageObject{Kind: imageKindString, Str: obj.Value}

	case *ObjList:
		items, err := c.values(obj.Elements)
		if err != nil {
			return 0, err
		}
		c.img.Objects[idx].Kind = imageKindList
		c.img.Objects[idx].Items = items

	case *ObjRange:
		c.img.Objects[idx] = ImageObject{
			Kind:      imageKindRange,
			From:      obj.From,
			To:        obj.To,
			Inclusive: obj.IsInclusive,
		}

	case *ObjInstance:
		classRef, err := c.value(ObjVal(obj.Class()))
		if err != nil {
			return 0, err
		}
		items, err := c.values(obj.Fields)
		if err != nil {
			return 0, err
		}
		c.img.Objects[idx].Kind = imageKindInstance
		c.img.Objects[idx].Class = classRef
		c.img.Objects[idx].Items = items

	case *ObjClosure:
		if len(obj.upvalues) > 0 {
			return 0, fmt.Errorf("cannot capture a closure over local variables")
		}
		fnIdx, err := c.fn(obj.Fn)
		if err != nil {
			return 0, err
		}
		c.img.Objects[idx].Kind = imageKindClosure
		c.img.Objects[idx].Fn = fnIdx

	default:
		return 0, fmt.Errorf("cannot capture a %T", o)
	}
	return idx, nil
}

func (c *imageCapture) values(vals []Value) ([]ImageValue, error) {
	items := make([]ImageValue, len(vals))
	for i, v := range vals {
		iv, err := c.value(v)
		if err != nil {
			return nil, err
		}
		items[i] = iv
	}
	return items, nil
}

// class serializes a user class. The superclass is registered first, so
// the Classes table ends up ordered parents-first.
func (c *imageCapture) class(cls *ObjClass) (uint32, error) {
	if idx, ok := c.classIndex[cls]; ok {
		return idx, nil
	}
	if cls.superclass == nil {
		return 0, fmt.Errorf("cannot capture class %q without a superclass", cls.Name())
	}
	superRef, err := c.value(ObjVal(cls.superclass))
	if err != nil {
		return 0, err
	}

	entry := ImageClass{
		Name:       cls.Name(),
		Superclass: superRef,
		NumFields:  uint32(cls.numFields - cls.superclass.numFields),
	}
	if entry.Methods, err = c.ownMethods(cls); err != nil {
		return 0, err
	}
	meta := cls.Class()
	if entry.Statics, err = c.ownMethods(meta); err != nil {
		return 0, err
	}

	idx := uint32(len(c.img.Classes))
	c.classIndex[cls] = idx
	c.img.Classes = append(c.img.Classes, entry)
	return idx, nil
}

// ownMethods collects the block methods a class binds itself. Entries
// that match the superclass's table are inherited copies and are skipped;
// binding the superclass on restore recreates them.
func (c *imageCapture) ownMethods(cls *ObjClass) ([]ImageMethod, error) {
	var methods []ImageMethod
	for symbol, m := range cls.methods {
		if m.Type == MethodNone {
			continue
		}
		var inherited Method
		if cls.superclass != nil {
			inherited = cls.superclass.lookupMethod(symbol)
		}
		if m.Type == inherited.Type && m.Fn == inherited.Fn {
			continue
		}
		signature := c.vm.methodNames.Name(symbol)
		if m.Type != MethodBlock {
			return nil, fmt.Errorf("cannot capture class %q: method %q is native",
				cls.Name(), signature)
		}

		fnVal := m.Fn
		if fnVal.IsClosure() {
			cl := fnVal.AsClosure()
			if len(cl.upvalues) > 0 {
				return nil, fmt.Errorf("cannot capture class %q: method %q closes over local variables",
					cls.Name(), signature)
			}
			fnVal = ObjVal(cl.Fn)
		}
		fnIdx, err := c.fn(fnVal.AsFn())
		if err != nil {
			return nil, err
		}
		methods = append(methods, ImageMethod{Signature: signature, Fn: fnIdx})
	}
	return methods, nil
}

func (c *imageCapture) fn(fn *ObjFn) (uint32, error) {
	if idx, ok := c.fnIndex[fn]; ok {
		return idx, nil
	}
	idx := uint32(len(c.img.Fns))
	c.fnIndex[fn] = idx

	code := make([]byte, len(fn.code))
	copy(code, fn.code)
	c.img.Fns = append(c.img.Fns, ImageFn{
		Name:        fn.name,
		NumParams:   uint32(fn.numParams),
		NumUpvalues: uint32(fn.numUpvalues),
		MaxSlots:    uint32(fn.maxSlots),
		BoundFields: fn.boundFields,
		Code:        code,
	})

	constants, err := c.values(fn.constants)
	if err != nil {
		return 0, err
	}
	c.img.Fns[idx].Constants = constants
	return idx, nil
}
