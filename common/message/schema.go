package message

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// navmesh.proto, built at init:
//
//	syntax = "proto3";
//	package recastgo.navmesh;
//	message PolyMesh {
//	  repeated uint32 verts = 1; repeated uint32 polys = 2;
//	  repeated uint32 regs = 3; repeated uint32 flags = 4;
//	  bytes areas = 5; uint32 nvp = 6;
//	  repeated float bmin = 7; repeated float bmax = 8;
//	  float cs = 9; float ch = 10; uint32 border_size = 11; float max_edge_error = 12;
//	}
//	message PolyMeshDetail { repeated uint32 meshes = 1; repeated float verts = 2; bytes tris = 3; }
//	message NavMesh { PolyMesh mesh = 1; PolyMeshDetail detail = 2; }
const protoPackage = "recastgo.navmesh"

var (
	polyMeshDesc   protoreflect.MessageDescriptor
	detailMeshDesc protoreflect.MessageDescriptor
	navMeshDesc    protoreflect.MessageDescriptor
)

type fieldSpec struct {
	name     string
	num      int32
	typ      descriptorpb.FieldDescriptorProto_Type
	repeated bool
	msg      string
}

func messageProto(name string, fields ...fieldSpec) *descriptorpb.DescriptorProto {
	m := &descriptorpb.DescriptorProto{Name: proto.String(name)}
	for _, f := range fields {
		label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
		if f.repeated {
			label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
		}
		fd := &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(f.name),
			JsonName: proto.String(f.name),
			Number:   proto.Int32(f.num),
			Label:    label.Enum(),
			Type:     f.typ.Enum(),
		}
		if f.msg != "" {
			fd.TypeName = proto.String("." + protoPackage + "." + f.msg)
		}
		m.Field = append(m.Field, fd)
	}
	return m
}

func init() {
	const (
		u32   = descriptorpb.FieldDescriptorProto_TYPE_UINT32
		f32   = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
		bytes = descriptorpb.FieldDescriptorProto_TYPE_BYTES
		msg   = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	)
	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("recastgo/navmesh.proto"),
		Package: proto.String(protoPackage),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			messageProto("PolyMesh",
				fieldSpec{"verts", 1, u32, true, ""},
				fieldSpec{"polys", 2, u32, true, ""},
				fieldSpec{"regs", 3, u32, true, ""},
				fieldSpec{"flags", 4, u32, true, ""},
				fieldSpec{"areas", 5, bytes, false, ""},
				fieldSpec{"nvp", 6, u32, false, ""},
				fieldSpec{"bmin", 7, f32, true, ""},
				fieldSpec{"bmax", 8, f32, true, ""},
				fieldSpec{"cs", 9, f32, false, ""},
				fieldSpec{"ch", 10, f32, false, ""},
				fieldSpec{"border_size", 11, u32, false, ""},
				fieldSpec{"max_edge_error", 12, f32, false, ""},
			),
			messageProto("PolyMeshDetail",
				fieldSpec{"meshes", 1, u32, true, ""},
				fieldSpec{"verts", 2, f32, true, ""},
				fieldSpec{"tris", 3, bytes, false, ""},
			),
			messageProto("NavMesh",
				fieldSpec{"mesh", 1, msg, false, "PolyMesh"},
				fieldSpec{"detail", 2, msg, false, "PolyMeshDetail"},
			),
		},
	}
	fd, err := protodesc.NewFile(file, new(protoregistry.Files))
	if err != nil {
		panic(err)
	}
	msgs := fd.Messages()
	polyMeshDesc = msgs.ByName("PolyMesh")
	detailMeshDesc = msgs.ByName("PolyMeshDetail")
	navMeshDesc = msgs.ByName("NavMesh")
}
