// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

//go:build integration

package rig_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/crabrig/crab/internal/component"
	"github.com/crabrig/crab/internal/meta"
	"github.com/crabrig/crab/internal/plugin"
	"github.com/crabrig/crab/internal/registry"
	"github.com/crabrig/crab/internal/rig"
	"github.com/crabrig/crab/internal/scene"
	"github.com/crabrig/crab/pkg/errutil"
)

var _ = Describe("Rig lifecycle", func() {
	var (
		ctx context.Context
		s   *session
		g   *scene.Memory
		r   *rig.Rig
	)

	singular := func(parent scene.NodeID, description string) *rig.Instance {
		GinkgoHelper()
		inst, err := r.AddComponent(ctx, component.SingularIdentifier, parent, "",
			map[string]any{"description": description, "side": "MD"})
		Expect(err).NotTo(HaveOccurred())
		return inst
	}

	BeforeEach(func() {
		ctx = context.Background()
		s = newSession(pluginDir)
		g = scene.NewMemory()
		var err error
		r, err = rig.Create(g, "Test", rig.WithFactories(s.factories))
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates and enumerates a rig", func() {
		s.save(ctx, g)
		g, r = s.load(ctx, "Test")

		Expect(rig.All(g, rig.WithFactories(s.factories))).To(HaveLen(1))
		nodes := []scene.NodeID{r.Node(), r.ControlOrg(), r.SkeletonOrg(), r.GuideOrg()}
		seen := map[scene.NodeID]bool{}
		for _, n := range nodes {
			Expect(scene.IsNull(n)).To(BeFalse())
			seen[n] = true
		}
		Expect(seen).To(HaveLen(4))
		records, err := r.Behaviours()
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(BeEmpty())
	})

	It("round-trips two components through build and edit", func() {
		head := singular(scene.Null, "Head")
		singular(head.SkeletonRoot(), "Tail")
		Expect(r.SkeletonRoots()).To(HaveLen(2))
		Expect(r.GuideRoots()).To(HaveLen(2))
		Expect(r.ControlRoots()).To(BeEmpty())
		s.save(ctx, g)

		g, r = s.load(ctx, "Test")
		Expect(r.Build(ctx)).To(Succeed())
		Expect(r.ControlRoots()).To(HaveLen(2))
		Expect(r.IsClean()).To(BeTrue())
		s.save(ctx, g)

		g, r = s.load(ctx, "Test")
		Expect(r.State()).To(Equal(rig.Built))
		Expect(r.Edit(ctx)).To(Succeed())
		Expect(r.ControlRoots()).To(BeEmpty())
		Expect(r.State()).To(Equal(rig.Editable))
	})

	It("keeps behaviour order through shift and remove", func() {
		var ids []string
		for range 3 {
			rec, err := r.AddBehaviour("Constrain", rig.Append, nil)
			Expect(err).NotTo(HaveOccurred())
			ids = append(ids, rec.ID.String())
		}
		records, err := r.Behaviours()
		Expect(err).NotTo(HaveOccurred())
		Expect(r.ShiftBehaviour(records[0].ID, 2)).To(Succeed())
		s.save(ctx, g)

		g, r = s.load(ctx, "Test")
		records, err = r.Behaviours()
		Expect(err).NotTo(HaveOccurred())
		Expect(idStrings(records.IDs())).To(Equal([]string{ids[1], ids[2], ids[0]}))

		Expect(r.RemoveBehaviour(records[0].ID)).To(Succeed())
		records, err = r.Behaviours()
		Expect(err).NotTo(HaveOccurred())
		Expect(idStrings(records.IDs())).To(Equal([]string{ids[2], ids[0]}))
	})

	It("keeps control shape edits across a rebuild", func() {
		singular(scene.Null, "Head")
		Expect(r.Build(ctx)).To(Succeed())

		ctl, ok := scene.FindByName(g, "CTL_Head_1_MD")
		Expect(ok).To(BeTrue())
		shape := scene.CurveShapes(g, ctl)[0]
		c, err := scene.ReadCurve(g, shape)
		Expect(err).NotTo(HaveOccurred())
		c.CVs[0][0]++
		Expect(scene.WriteCurve(g, shape, c)).To(Succeed())
		want := scene.TransformPoint(scene.WorldMatrix(g, ctl), c.CVs[0])

		Expect(r.Edit(ctx)).To(Succeed())
		s.save(ctx, g)
		g, r = s.load(ctx, "Test")
		Expect(r.Build(ctx)).To(Succeed())

		ctl, ok = scene.FindByName(g, "CTL_Head_1_MD")
		Expect(ok).To(BeTrue())
		got, err := scene.ReadCurve(g, scene.CurveShapes(g, ctl)[0])
		Expect(err).NotTo(HaveOccurred())
		pos := scene.TransformPoint(scene.WorldMatrix(g, ctl), got.CVs[0])
		for i := range 3 {
			Expect(pos[i]).To(BeNumerically("~", want[i], 1e-5))
		}
	})

	It("refuses to remove a component with a skinned joint", func() {
		head := singular(scene.Null, "Head")
		mesh, err := g.CreateNode(scene.TypeMesh, "bodyShape", r.GeometryOrg())
		Expect(err).NotTo(HaveOccurred())
		cluster, err := g.CreateSkinCluster(mesh, []scene.NodeID{head.SkeletonRoot()})
		Expect(err).NotTo(HaveOccurred())
		Expect(g.SetSkinWeight(cluster, head.SkeletonRoot(), 1)).To(Succeed())
		s.save(ctx, g)

		g, r = s.load(ctx, "Test")
		root := r.SkeletonRoots()[0]
		removed, err := r.RemoveComponent(ctx, root)
		Expect(removed).To(BeFalse())
		Expect(errutil.Code(err)).To(Equal(component.ErrRemovalRefused))
		Expect(g.Exists(meta.IsComponentRoot(g, root))).To(BeTrue())
		Expect(r.SkeletonRoots()).To(HaveLen(1))
	})

	Describe("script plugins", func() {
		It("builds a Lua component and runs a Lua process", func() {
			chain, err := r.AddComponent(ctx, "Chain", scene.Null, "", map[string]any{"side": "LF"})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain.Joints()).To(HaveLen(3))

			Expect(r.Build(ctx)).To(Succeed())
			Expect(r.ControlRoots()).To(HaveLen(1))
			Expect(chain.Find("Controls")).To(HaveLen(3))
			count, err := g.GetAttr(r.Node(), "build_count")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))

			s.save(ctx, g)
			g, r = s.load(ctx, "Test")
			Expect(r.Build(ctx)).To(Succeed())
			count, err = g.GetAttr(r.Node(), "build_count")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(2))
		})
	})
})

var _ = Describe("Versioned plugin selection", func() {
	writeVersion := func(root, version string) {
		GinkgoHelper()
		dir := filepath.Join(root, "foo-"+version)
		Expect(os.MkdirAll(dir, 0o750)).To(Succeed())
		manifest := "name: foo\nversion: " + version + "\nkind: process\nruntime: lua\nlua-plugin:\n  entry: main.lua\n"
		Expect(os.WriteFile(filepath.Join(dir, plugin.ManifestFile), []byte(manifest), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "main.lua"), []byte(""), 0o600)).To(Succeed())
	}

	It("serves the highest version unless one is asked for", func() {
		root := GinkgoT().TempDir()
		for _, v := range []string{"1.0.0", "3.0.0", "2.0.0"} {
			writeVersion(root, v)
		}
		f := registry.New(registry.WithoutEnv(), registry.WithoutDefaultPaths(), registry.WithPaths(root))

		p, ok := f.Processes.Request("foo")
		Expect(ok).To(BeTrue())
		Expect(p.Version()).To(Equal("3.0.0"))

		p, ok = f.Processes.RequestVersion("foo", "2.0.0")
		Expect(ok).To(BeTrue())
		Expect(p.Version()).To(Equal("2.0.0"))

		_, ok = f.Processes.RequestVersion("foo", "99.0.0")
		Expect(ok).To(BeFalse())
	})
})

func idStrings[T interface{ String() string }](ids []T) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
