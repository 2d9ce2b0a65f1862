package vm

import (
	"encoding/binary"
	"fmt"
)

// imageRestore holds the tables built while loading a snapshot.
type imageRestore struct {
	vm  *VM
	img *Image

	// methodMap and globalMap translate capture-time ids into this VM's.
	methodMap []uint16
	globalMap []uint16

	// coreByName snapshots the built-in bindings before any image global
	// is assigned, so core references resolve even when the image itself
	// overwrote a built-in name.
	coreByName map[string]*ObjClass

	fns     []*ObjFn
	classes []*ObjClass
	objects []Obj
}

// RestoreImage loads a snapshot into the VM. It is meant for a freshly
// bootstrapped VM: globals restore by name, user classes are rebuilt on
// top of the live built-in classes, and every call and global operand in
// the restored bytecode is rewritten from the capture-time symbol ids to
// this VM's.
func (vm *VM) RestoreImage(img *Image) error {
	if img.Version != ImageVersion {
		return fmt.Errorf("vm: image version %d not supported (want %d)",
			img.Version, ImageVersion)
	}
	if len(img.Globals) != len(img.GlobalNames) {
		return fmt.Errorf("vm: image has %d globals but %d names",
			len(img.Globals), len(img.GlobalNames))
	}

	r := &imageRestore{vm: vm, img: img, coreByName: make(map[string]*ObjClass)}
	for slot := 0; slot < vm.coreGlobals; slot++ {
		if v := vm.globals[slot]; v.IsClass() {
			r.coreByName[vm.globalNames.Name(slot)] = v.AsClass()
		}
	}

	r.methodMap = make([]uint16, len(img.MethodNames))
	for i, name := range img.MethodNames {
		r.methodMap[i] = uint16(vm.MethodSymbol(name))
	}
	r.globalMap = make([]uint16, len(img.GlobalNames))
	for i, name := range img.GlobalNames {
		r.globalMap[i] = uint16(vm.DeclareGlobal(name))
	}

	r.buildFnShells()
	if err := r.buildClasses(); err != nil {
		return err
	}
	if err := r.buildObjectShells(); err != nil {
		return err
	}
	if err := r.fillObjects(); err != nil {
		return err
	}
	if err := r.fillConstants(); err != nil {
		return err
	}
	if err := r.rewriteCode(); err != nil {
		return err
	}
	return r.assignGlobals()
}

// buildFnShells creates the fns with their code copied but the constant
// pools still empty. Like fns fresh out of the compiler they carry no
// class pointer; classOf falls back by kind.
func (r *imageRestore) buildFnShells() {
	r.fns = make([]*ObjFn, len(r.img.Fns))
	for i, ifn := range r.img.Fns {
		code := make([]byte, len(ifn.Code))
		copy(code, ifn.Code)
		r.fns[i] = &ObjFn{
			name:        ifn.Name,
			code:        code,
			numParams:   int(ifn.NumParams),
			numUpvalues: int(ifn.NumUpvalues),
			maxSlots:    int(ifn.MaxSlots),
			boundFields: ifn.BoundFields,
		}
	}
}

// buildClasses rebuilds the user classes in table order, which is
// parents-first, so a superclass reference always resolves to a class
// built earlier or to a built-in.
func (r *imageRestore) buildClasses() error {
	r.classes = make([]*ObjClass, 0, len(r.img.Classes))
	for _, ic := range r.img.Classes {
		superclass, err := r.classRef(ic.Superclass)
		if err != nil {
			return err
		}
		cls := r.vm.NewClass(superclass, int(ic.NumFields),
			r.vm.NewString(ic.Name).AsString())
		if err := r.bindMethods(cls, ic.Methods); err != nil {
			return err
		}
		if err := r.bindMethods(cls.Class(), ic.Statics); err != nil {
			return err
		}
		r.classes = append(r.classes, cls)
	}
	return nil
}

func (r *imageRestore) bindMethods(cls *ObjClass, methods []ImageMethod) error {
	for _, m := range methods {
		fn, err := r.fnAt(m.Fn)
		if err != nil {
			return err
		}
		cls.bindMethod(r.vm.MethodSymbol(m.Signature), blockMethod(ObjVal(fn)))
	}
	return nil
}

func (r *imageRestore) buildObjectShells() error {
	r.objects = make([]Obj, len(r.img.Objects))
	for i, io := range r.img.Objects {
		switch io.Kind {
		case imageKindString:
			r.objects[i] = r.vm.NewString(io.Str).AsString()

		case imageKindList:
			r.objects[i] = r.vm.NewList(len(io.Items))

		case imageKindRange:
			r.objects[i] = r.vm.NewRange(io.From, io.To, io.Inclusive).AsRange()

		case imageKindInstance:
			cls, err := r.classRef(io.Class)
			if err != nil {
				return err
			}
			inst := r.vm.NewInstance(cls).AsInstance()
			if len(io.Items) != len(inst.Fields) {
				return fmt.Errorf("vm: image instance of %q has %d fields, want %d",
					cls.Name(), len(io.Items), len(inst.Fields))
			}
			r.objects[i] = inst

		case imageKindClosure:
			fn, err := r.fnAt(io.Fn)
			if err != nil {
				return err
			}
			if fn.numUpvalues != 0 {
				return fmt.Errorf("vm: image closure has captured variables")
			}
			r.objects[i] = r.vm.newClosure(fn)

		default:
			return fmt.Errorf("vm: image object has unknown kind %d", io.Kind)
		}
	}
	return nil
}

// fillObjects populates list elements and instance fields, which may
// reference any object in the table, including later and cyclic ones.
func (r *imageRestore) fillObjects() error {
	for i, io := range r.img.Objects {
		switch obj := r.objects[i].(type) {
		case *ObjList:
			for j, item := range io.Items {
				v, err := r.value(item)
				if err != nil {
					return err
				}
				obj.Elements[j] = v
			}
		case *ObjInstance:
			for j, item := range io.Items {
				v, err := r.value(item)
				if err != nil {
					return err
				}
				obj.Fields[j] = v
			}
		}
	}
	return nil
}

func (r *imageRestore) fillConstants() error {
	for i, ifn := range r.img.Fns {
		constants := make([]Value, len(ifn.Constants))
		for j, item := range ifn.Constants {
			v, err := r.value(item)
			if err != nil {
				return err
			}
			constants[j] = v
		}
		r.fns[i].constants = constants
	}
	return nil
}

// rewriteCode walks every instruction and swaps the capture-time operand
// ids for this VM's. Constant pools must be filled first: the walk needs
// them to size closure instructions.
func (r *imageRestore) rewriteCode() error {
	for _, fn := range r.fns {
		code := fn.code
		for ip := 0; ip < len(code); {
			op := Opcode(code[ip])
			switch {
			case op == OpLoadGlobal || op == OpStoreGlobal:
				old := binary.LittleEndian.Uint16(code[ip+1:])
				if int(old) >= len(r.globalMap) {
					return fmt.Errorf("vm: image global operand %d out of range in %q",
						old, fn.name)
				}
				binary.LittleEndian.PutUint16(code[ip+1:], r.globalMap[old])

			case op >= OpCall0 && op <= OpCall16,
				op == OpMethodInstance, op == OpMethodStatic:
				old := binary.LittleEndian.Uint16(code[ip+1:])
				if int(old) >= len(r.methodMap) {
					return fmt.Errorf("vm: image method operand %d out of range in %q",
						old, fn.name)
				}
				binary.LittleEndian.PutUint16(code[ip+1:], r.methodMap[old])
			}
			ip += instructionLength(code, fn.constants, ip)
		}
	}
	return nil
}

func (r *imageRestore) assignGlobals() error {
	for i, iv := range r.img.Globals {
		v, err := r.value(iv)
		if err != nil {
			return err
		}
		r.vm.globals[r.globalMap[i]] = v
	}
	return nil
}

func (r *imageRestore) value(v ImageValue) (Value, error) {
	switch v.Tag {
	case imageTagNull:
		return NullVal(), nil
	case imageTagFalse:
		return BoolVal(false), nil
	case imageTagTrue:
		return BoolVal(true), nil
	case imageTagNum:
		return NumVal(v.Num), nil
	case imageTagObject:
		if int(v.Index) >= len(r.objects) {
			return NullVal(), fmt.Errorf("vm: image object index %d out of range", v.Index)
		}
		return ObjVal(r.objects[v.Index]), nil
	case imageTagClass, imageTagCoreClass, imageTagCoreMeta:
		cls, err := r.classRef(v)
		if err != nil {
			return NullVal(), err
		}
		return ObjVal(cls), nil
	case imageTagFn:
		fn, err := r.fnAt(v.Index)
		if err != nil {
			return NullVal(), err
		}
		return ObjVal(fn), nil
	default:
		return NullVal(), fmt.Errorf("vm: image value has unknown tag %d", v.Tag)
	}
}

func (r *imageRestore) classRef(v ImageValue) (*ObjClass, error) {
	switch v.Tag {
	case imageTagCoreClass:
		cls, ok := r.coreByName[v.Str]
		if !ok {
			return nil, fmt.Errorf("vm: image references unknown core class %q", v.Str)
		}
		return cls, nil
	case imageTagCoreMeta:
		cls, ok := r.coreByName[v.Str]
		if !ok {
			return nil, fmt.Errorf("vm: image references unknown core class %q", v.Str)
		}
		return cls.Class(), nil
	case imageTagClass:
		if int(v.Index) >= len(r.classes) {
			return nil, fmt.Errorf("vm: image class index %d out of range", v.Index)
		}
		return r.classes[v.Index], nil
	default:
		return nil, fmt.Errorf("vm: image reference is not a class (tag %d)", v.Tag)
	}
}

func (r *imageRestore) fnAt(idx uint32) (*ObjFn, error) {
	if int(idx) >= len(r.fns) {
		return nil, fmt.Errorf("vm: image fn index %d out of range", idx)
	}
	return r.fns[idx], nil
}
